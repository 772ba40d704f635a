package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig()

	assert.Equal(t, "https://printprobdb.psc.edu/api", APIBaseURL)
	assert.Equal(t, "https://printprobdb.psc.edu/books", BooksWebURL)
	assert.Equal(t, "http://estc.bl.uk", ESTCBaseURL)
	assert.Equal(t, 20, TransferWorkers)
	assert.Equal(t, "/ocean/projects/hum160002p/shared", TifRoot)
	assert.Equal(t, []string{"S111228"}, MultiBookESTCs)
	assert.Contains(t, BatchPrefix, "sbatch")
	assert.Empty(t, BatchCommand)
}

func TestInitConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("api.url", "https://backend.test/api")
	viper.Set("transfer.workers", 4)
	viper.Set("ingest.multi_book_estcs", []string{"S111228", "R99999"})

	InitConfig()

	assert.Equal(t, "https://backend.test/api", APIBaseURL)
	assert.Equal(t, 4, TransferWorkers)
	assert.True(t, IsMultiBookESTC("R99999"))
}

func TestIsMultiBookESTC(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	InitConfig()

	assert.True(t, IsMultiBookESTC("S111228"))
	assert.False(t, IsMultiBookESTC("R13852"))
}
