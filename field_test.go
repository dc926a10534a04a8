package spot

import "testing"

func TestFieldWithAlias(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		field    string
		want     string
	}{
		{"plain", MySQL(), "title", "`posts`.`title`"},
		{"column alias", MySQL(), "author", "`posts`.`author_id`"},
		{"trimmed", MySQL(), "  created ", "`posts`.`date_created`"},
		{"undeclared", MySQL(), "rating", "`posts`.`rating`"},
		{"wildcard", MySQL(), "*", "`posts`.*"},
		{"backtick quoted", MySQL(), "`title`", "`posts`.`title`"},
		{"function", MySQL(), "COUNT(id)", "COUNT(`posts`.`id`)"},
		{"function with alias", MySQL(), "LOWER(author)", "LOWER(`posts`.`author_id`)"},
		{"function with suffix", MySQL(), "MAX(views) + 1", "MAX(`posts`.`views`) + 1"},
		{"function without field", MySQL(), "COUNT(*)", "COUNT(*)"},
		{"function field boundary", MySQL(), "LENGTH(subtitle)", "LENGTH(subtitle)"},
		{"expression", MySQL(), "views * 2", "posts.views * 2"},
		{"postgres", Postgres(), "title", `"posts"."title"`},
		{"postgres column alias", Postgres(), `"author"`, `"posts"."author_id"`},
		{"postgres backtick", Postgres(), "`created`", `"posts"."date_created"`},
		{"sqlite", SQLite(), "author", "`posts`.`author_id`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newTestQuery(t, tt.platform)
			if got := q.FieldWithAlias(tt.field); got != tt.want {
				t.Errorf("FieldWithAlias(%q) = %q, want %q", tt.field, got, tt.want)
			}
		})
	}
}

func TestFieldWithAlias_NoQuote(t *testing.T) {
	q := newTestQuery(t, MySQL()).NoQuote(true)

	if got := q.FieldWithAlias("author"); got != "posts.author_id" {
		t.Errorf("FieldWithAlias() = %q, want %q", got, "posts.author_id")
	}
	if got := q.FieldWithAlias("COUNT(id)"); got != "COUNT(posts.id)" {
		t.Errorf("FieldWithAlias() = %q, want %q", got, "COUNT(posts.id)")
	}
}

func TestEscapeIdentifier(t *testing.T) {
	q := newTestQuery(t, MySQL())

	tests := []struct {
		in, want string
	}{
		{"posts.title", "`posts`.`title`"},
		{" title ", "`title`"},
		{"posts.*", "`posts`.*"},
		{"title AS t", "title AS t"},
		{"COUNT(*)", "COUNT(*)"},
		{"we`ird", "`we``ird`"},
	}
	for _, tt := range tests {
		if got := q.EscapeIdentifier(tt.in); got != tt.want {
			t.Errorf("EscapeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		platform Platform
		want     string
	}{
		{MySQL(), `'it\'s'`},
		{SQLite(), `'it''s'`},
		{Postgres(), `'it''s'`},
	}
	for _, tt := range tests {
		q := newTestQuery(t, tt.platform)
		if got := q.Escape("it's"); got != tt.want {
			t.Errorf("%s Escape() = %q, want %q", tt.platform.Family(), got, tt.want)
		}
	}

	q := newTestQuery(t, MySQL()).NoQuote(true)
	if got := q.Escape("it's"); got != "it's" {
		t.Errorf("Escape() with NoQuote = %q, want %q", got, "it's")
	}
}

func TestIndexIdentifier(t *testing.T) {
	tests := []struct {
		s, name string
		want    int
	}{
		{"COUNT(id)", "id", 6},
		{"SUM(paid) + paid", "paid", 4},
		{"SUM(unpaid) + paid", "paid", 14},
		{"LENGTH(subtitle)", "title", -1},
		{"x", "", -1},
	}
	for _, tt := range tests {
		if got := indexIdentifier(tt.s, tt.name); got != tt.want {
			t.Errorf("indexIdentifier(%q, %q) = %d, want %d", tt.s, tt.name, got, tt.want)
		}
	}
}
