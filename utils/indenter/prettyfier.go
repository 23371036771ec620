package indenter

import (
	"fmt"
	"strings"
)

// indenter builds nested, indented renderings of lattice elements.
// Every Start begins an independent buffer, so renderings may be
// produced concurrently. Multi-line entries are re-indented when
// nested, so elements render themselves as if at the outermost level.
type indenter struct {
	buf *strings.Builder
}

const unit = "  "

func Indenter() indenter {
	return indenter{}
}

func (i indenter) Start(str string) indenter {
	i.buf = &strings.Builder{}
	i.buf.WriteString(str)
	return i
}

type stringableString string

func (s stringableString) String() string {
	return string(s)
}

func (i indenter) NestStrings(strs ...string) indenter {
	return i.NestStringsSep("", strs...)
}

func (i indenter) NestStringsSep(sep string, strs ...string) indenter {
	stringers := make([]fmt.Stringer, len(strs))
	for i, v := range strs {
		stringers[i] = stringableString(v)
	}
	return i.NestSep(sep, stringers...)
}

func (i indenter) Nest(strs ...fmt.Stringer) indenter {
	return i.NestSep("", strs...)
}

func (i indenter) NestSep(sep string, strs ...fmt.Stringer) indenter {
	thunks := make([]func() string, len(strs))
	for j, s := range strs {
		thunks[j] = s.String
	}
	return i.NestThunkedSep(sep, thunks...)
}

func (i indenter) NestThunked(strs ...func() string) indenter {
	return i.NestThunkedSep("", strs...)
}

func (i indenter) NestThunkedSep(sep string, strs ...func() string) indenter {
	if len(strs) == 1 {
		i.buf.WriteString(strs[0]())
		return i
	}

	for j, str := range strs {
		i.buf.WriteString("\n" + unit + strings.ReplaceAll(str(), "\n", "\n"+unit))
		if j < len(strs)-1 {
			i.buf.WriteString(sep)
		}
	}
	if len(strs) > 0 {
		i.buf.WriteString("\n")
	}
	return i
}

func (i indenter) End(str string) string {
	return i.buf.String() + str
}
