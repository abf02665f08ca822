package report

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
)

// RenderJSON writes rep as indented JSON with sorted map keys.
func RenderJSON(w io.Writer, rep *Report) error {
	data, err := sonic.ConfigStd.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
