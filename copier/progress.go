package copier

import "io"

// DotProgress returns an [Options.OnProgress] callback that prints one dot per tick to w.
func DotProgress(w io.Writer) func(int64) {
	return func(int64) {
		_, _ = io.WriteString(w, ".")
	}
}
