package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"Title_Vote/internal/model"
	"Title_Vote/internal/pkg"
)

type mapCache map[string][]byte

func (c mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := c[key]
	return b, ok, nil
}

func (c mapCache) Set(_ context.Context, key string, val []byte) error {
	c[key] = val
	return nil
}

func TestMergeResults(t *testing.T) {
	code := "20183782"
	local := []model.Movie{
		{ShortID: "abcdefgh", OriginalTitle: "Parasite", KoreanTitle: "기생충", Year: 2019, KobisMovieCode: &code},
		{ShortID: "hgfedcba", OriginalTitle: "Manual Entry"},
	}
	remote := []pkg.KobisMovieSummary{
		{MovieCd: code, MovieNm: "기생충"},
		{MovieCd: "20040001", MovieNm: "살인의 추억", MovieNmEn: "Memories of Murder", PrdtYear: "2003",
			NationAlt: "한국", GenreAlt: "범죄,드라마", Directors: []pkg.KobisPerson{{PeopleNm: "봉준호"}}},
		{MovieCd: "20040001", MovieNm: "duplicate in registry page"},
		{MovieCd: "20090002", MovieNm: "마더", GenreAlt: "드라마"},
	}

	got := MergeResults(local, remote)
	if len(got) != 4 {
		t.Fatalf("merged %d rows, want 4: %+v", len(got), got)
	}
	if got[0].Source != "db" || !got[0].InDB || got[0].MovieCd != code || got[0].Year != "2019" {
		t.Fatalf("row 0 = %+v", got[0])
	}
	if got[1].Source != "db" || got[1].MovieCd != "" || got[1].Year != "" {
		t.Fatalf("row 1 = %+v", got[1])
	}
	want := SearchResult{
		Source:         "kobis",
		MovieCd:        "20040001",
		KoreanTitle:    "살인의 추억",
		EnglishTitle:   "Memories of Murder",
		Year:           "2003",
		Directors:      "봉준호",
		AdditionalInfo: "한국 • 범죄,드라마",
	}
	if got[2] != want {
		t.Fatalf("row 2 = %+v, want %+v", got[2], want)
	}
	if got[3].AdditionalInfo != "드라마" || got[3].InDB {
		t.Fatalf("row 3 = %+v", got[3])
	}
}

func TestMatchesQuery(t *testing.T) {
	m := &model.Movie{OriginalTitle: "Parasite", KoreanTitle: "기생충", EnglishTitle: "Gisaengchung", Directors: "봉준호, Bong Joon-ho"}
	tests := []struct {
		term, typ string
		want      bool
	}{
		{"para", "title", true},
		{"생충", "title", true},
		{"gisaeng", "title", false},
		{"bong", "title", false},
		{"bong", "director", true},
		{"para", "director", false},
	}
	for _, tt := range tests {
		if got := MatchesQuery(m, tt.term, tt.typ); got != tt.want {
			t.Errorf("MatchesQuery(%q, %q) = %v, want %v", tt.term, tt.typ, got, tt.want)
		}
	}
}

func TestSearchMergesLocalAndRegistry(t *testing.T) {
	f := newFixture(t)
	f.registry.infos["20183782"] = parasiteInfo()
	m, err := f.movies.Import(f.ctx, identity("alice"), "20183782")
	mustNoErr(t, err, "import")
	f.movie("Unrelated")

	f.registry.results = []pkg.KobisMovieSummary{
		{MovieCd: "20183782", MovieNm: "기생충"},
		{MovieCd: "20190001", MovieNm: "기생충 2"},
	}
	res, err := f.movies.Search(f.ctx, "  PARA ", "title")
	mustNoErr(t, err, "search")
	if res.RegistryError != "" || len(res.Results) != 2 {
		t.Fatalf("results = %+v", res)
	}
	if res.Results[0].ShortID != m.ShortID || res.Results[1].MovieCd != "20190001" {
		t.Fatalf("results = %+v", res.Results)
	}

	res, err = f.movies.Search(f.ctx, "봉준호", "director")
	mustNoErr(t, err, "director search")
	if f.registry.lastField != "director" || len(res.Results) == 0 || !res.Results[0].InDB {
		t.Fatalf("director results = %+v", res)
	}

	res, err = f.movies.Search(f.ctx, "   ", "title")
	mustNoErr(t, err, "blank search")
	if len(res.Results) != 0 {
		t.Fatalf("blank query results = %+v", res.Results)
	}
}

func TestSearchDegradesWhenRegistryFails(t *testing.T) {
	f := newFixture(t)
	f.movie("Parasite")
	f.registry.err = errors.New("connection refused")

	res, err := f.movies.Search(f.ctx, "parasite", "title")
	mustNoErr(t, err, "search")
	if len(res.Results) != 1 || res.Results[0].Source != "db" {
		t.Fatalf("results = %+v", res.Results)
	}
	if res.RegistryError == "" {
		t.Fatal("registry error not reported")
	}
}

func TestSearchUsesCache(t *testing.T) {
	f := newFixture(t)
	cache := mapCache{}
	f.movies.cache = cache

	raw, _ := json.Marshal([]pkg.KobisMovieSummary{{MovieCd: "cached", MovieNm: "From Cache"}})
	cache["title:okja"] = raw
	f.registry.err = errors.New("must not be called")

	res, err := f.movies.Search(f.ctx, "Okja", "")
	mustNoErr(t, err, "search")
	if res.RegistryError != "" || len(res.Results) != 1 || res.Results[0].MovieCd != "cached" {
		t.Fatalf("results = %+v", res)
	}

	f.registry.err = nil
	f.registry.results = []pkg.KobisMovieSummary{{MovieCd: "fresh"}}
	_, err = f.movies.Search(f.ctx, "Mother", "director")
	mustNoErr(t, err, "search")
	if _, ok := cache["director:mother"]; !ok {
		t.Fatalf("registry answer not cached: %v", cache)
	}
}
