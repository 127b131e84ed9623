package dockerfile

import (
	"errors"
	"reflect"
	"testing"
)

func TestReadLogicalLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []LogicalLine
	}{
		{
			name:  "single instruction",
			input: "FROM alpine:3.18\n",
			want: []LogicalLine{
				{Number: 1, Text: "FROM alpine:3.18"},
			},
		},
		{
			name:  "continuation joins with space",
			input: "RUN apt-get update && \\\n    apt-get install -y curl\n",
			want: []LogicalLine{
				{Number: 1, Text: "RUN apt-get update && apt-get install -y curl"},
			},
		},
		{
			name:  "blank lines and comments skipped",
			input: "# header\n\nFROM alpine\n\n# about to run\nRUN echo hi\n",
			want: []LogicalLine{
				{Number: 3, Text: "FROM alpine"},
				{Number: 6, Text: "RUN echo hi"},
			},
		},
		{
			name:  "comment inside continuation does not break it",
			input: "RUN echo a \\\n  # interleaved\n  && echo b\n",
			want: []LogicalLine{
				{Number: 1, Text: "RUN echo a && echo b"},
			},
		},
		{
			name:  "blank line inside continuation does not break it",
			input: "RUN echo a \\\n\n  && echo b\n",
			want: []LogicalLine{
				{Number: 1, Text: "RUN echo a && echo b"},
			},
		},
		{
			name:  "trailing comment stripped and kept",
			input: "EXPOSE 8080 # metrics\n",
			want: []LogicalLine{
				{Number: 1, Text: "EXPOSE 8080", TrailingComment: "metrics"},
			},
		},
		{
			name:  "hash inside quotes is not a comment",
			input: `RUN echo "#not a comment"` + "\n",
			want: []LogicalLine{
				{Number: 1, Text: `RUN echo "#not a comment"`},
			},
		},
		{
			name:  "crlf line endings",
			input: "FROM alpine\r\nRUN echo hi\r\n",
			want: []LogicalLine{
				{Number: 1, Text: "FROM alpine"},
				{Number: 2, Text: "RUN echo hi"},
			},
		},
		{
			name:  "escape directive switches continuation char",
			input: "# escape=`\nRUN echo a `\n  && echo b\n",
			want: []LogicalLine{
				{Number: 2, Text: "RUN echo a && echo b"},
			},
		},
		{
			name:  "doubled backslash is not a continuation",
			input: "RUN echo c:\\\\\nRUN echo d\n",
			want: []LogicalLine{
				{Number: 1, Text: "RUN echo c:\\\\"},
				{Number: 2, Text: "RUN echo d"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadLogicalLines(tt.input)
			if err != nil {
				t.Fatalf("ReadLogicalLines() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadLogicalLines() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadLogicalLinesUnterminatedContinuation(t *testing.T) {
	_, err := ReadLogicalLines("FROM alpine\nRUN echo hi \\\n")
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if serr.Line != 2 {
		t.Errorf("SyntaxError.Line = %d, want 2", serr.Line)
	}
}

func TestSplitWords(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`a b c`, []string{"a", "b", "c"}},
		{`"a b" c`, []string{"a b", "c"}},
		{`'a b' c`, []string{"a b", "c"}},
		{`key="some value"`, []string{"key=some value"}},
		{`a\ b c`, []string{"a b", "c"}},
		{`"esc \" quote"`, []string{`esc " quote`}},
		{``, nil},
		{`   `, nil},
	}

	for _, tt := range tests {
		got, err := splitWords(tt.input, 1)
		if err != nil {
			t.Fatalf("splitWords(%q) error = %v", tt.input, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitWords(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitWordsUnterminatedQuote(t *testing.T) {
	_, err := splitWords(`echo "oops`, 7)
	var serr *SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if serr.Line != 7 {
		t.Errorf("SyntaxError.Line = %d, want 7", serr.Line)
	}
}
