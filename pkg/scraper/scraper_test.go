package scraper

import "testing"

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "  Mali and   Niger\n sign accord ", "Mali and Niger sign accord"},
		{"paragraphs", "<p>First.</p><p>Second.</p>", "First. Second."},
		{"entities", "Traor&eacute; speaks &amp; listens", "Traoré speaks & listens"},
		{"script dropped", "<div>News<script>alert(1)</script></div>", "News"},
		{"link text kept", `Read <a href="https://x">more</a> here`, "Read more here"},
		{"image only", `<img src="a.jpg" alt="x">`, ""},
		{"line breaks", "one<br>two<br/>three", "one two three"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractText(tt.in); got != tt.want {
				t.Fatalf("ExtractText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
