package freshness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://www.nejm.org/doi/full/10.1056/x", want: "nejm.org"},
		{url: "https://pubmed.ncbi.nlm.nih.gov/12345/", want: "nih.gov"},
		{url: "https://www.bbc.co.uk/news", want: "bbc.co.uk"},
		{url: "http://127.0.0.1:8080/a", want: "127.0.0.1"},
		{url: "http://localhost/a", want: "localhost"},
		{url: "not a url at all", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceDomain(tt.url))
		})
	}
}
