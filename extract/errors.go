package extract

import "fmt"

// AnalysisError is a compile-time error found while extracting dependencies.
// Any of them makes the whole component fail.
type AnalysisError struct {
	Path string
	Msg  string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}
