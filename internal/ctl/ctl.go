package ctl

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
)

var newLine = []byte("\n")

// WriteJSON prints response to out,
// indented with tabs and with object keys sorted
func WriteJSON(out io.Writer, value any) error {
	js, err := json.Marshal(value)
	if err != nil {
		return errors.WithMessage(err, "failed to encode")
	}

	var buf bytes.Buffer
	if err = json.Indent(&buf, js, "", "\t"); err != nil {
		return errors.WithMessage(err, "failed to encode")
	}

	_, _ = out.Write(buf.Bytes())
	_, _ = out.Write(newLine)

	return nil
}
