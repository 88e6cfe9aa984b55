package document

import (
	"bytes"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// newConf returns a pdfcpu configuration that never touches the user's
// config directory and writes classic xref tables.
func newConf() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// PageCount returns the number of pages of a PDF held in memory.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), newConf())
}
