package index

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-otsuka/wren/pkg/model"
)

// parsePDF expands a PDF into one document per page so chunks cut from it
// carry stable page metadata. Pages with no extractable text are skipped.
func parsePDF(src string, data []byte) ([]model.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse PDF",
			goerr.T(model.TagValidation), goerr.V("source", src))
	}

	var docs []model.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract PDF text",
				goerr.V("source", src), goerr.V("page", i))
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, model.Document{Source: src, Content: text, Page: i})
	}
	return docs, nil
}
