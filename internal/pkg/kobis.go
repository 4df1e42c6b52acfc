package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

var ErrKobisNotConfigured = errors.New("KOBIS_API_KEY not configured")

// KobisFault is the error envelope the registry returns, often with HTTP 200.
type KobisFault struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

func (f *KobisFault) Error() string {
	return fmt.Sprintf("KOBIS API error: %s (%s)", f.Message, f.ErrorCode)
}

type KobisPerson struct {
	PeopleNm   string `json:"peopleNm"`
	PeopleNmEn string `json:"peopleNmEn,omitempty"`
}

type KobisMovieSummary struct {
	MovieCd     string        `json:"movieCd"`
	MovieNm     string        `json:"movieNm"`
	MovieNmEn   string        `json:"movieNmEn"`
	PrdtYear    string        `json:"prdtYear"`
	OpenDt      string        `json:"openDt"`
	TypeNm      string        `json:"typeNm"`
	PrdtStatNm  string        `json:"prdtStatNm"`
	NationAlt   string        `json:"nationAlt"`
	GenreAlt    string        `json:"genreAlt"`
	RepNationNm string        `json:"repNationNm"`
	RepGenreNm  string        `json:"repGenreNm"`
	Directors   []KobisPerson `json:"directors"`
}

type KobisSearchResult struct {
	TotCnt    int                 `json:"totCnt"`
	MovieList []KobisMovieSummary `json:"movieList"`
}

type KobisActor struct {
	PeopleNm   string `json:"peopleNm"`
	PeopleNmEn string `json:"peopleNmEn"`
	Cast       string `json:"cast"`
}

type KobisMovieInfo struct {
	MovieCd    string `json:"movieCd"`
	MovieNm    string `json:"movieNm"`
	MovieNmEn  string `json:"movieNmEn"`
	MovieNmOg  string `json:"movieNmOg"`
	PrdtYear   string `json:"prdtYear"`
	ShowTm     string `json:"showTm"`
	OpenDt     string `json:"openDt"`
	PrdtStatNm string `json:"prdtStatNm"`
	TypeNm     string `json:"typeNm"`
	Nations    []struct {
		NationNm string `json:"nationNm"`
	} `json:"nations"`
	Genres []struct {
		GenreNm string `json:"genreNm"`
	} `json:"genres"`
	Directors []KobisPerson `json:"directors"`
	Actors    []KobisActor  `json:"actors"`
}

// DirectorNames joins director names with ", ".
func DirectorNames(people []KobisPerson) string {
	names := make([]string, 0, len(people))
	for _, p := range people {
		if p.PeopleNm != "" {
			names = append(names, p.PeopleNm)
		}
	}
	return strings.Join(names, ", ")
}

type KobisConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// KobisClient talks to the KOBIS open API.
type KobisClient struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	maxRetries int
	log        *log.Helper
}

func NewKobisClient(cfg KobisConfig, logger log.Logger) *KobisClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &KobisClient{
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxRetries: cfg.MaxRetries,
		log:        log.NewHelper(log.With(logger, "module", "pkg/kobis")),
	}
}

// SearchByTitle runs searchMovieList with movieNm.
func (c *KobisClient) SearchByTitle(ctx context.Context, title string, page, perPage int) (*KobisSearchResult, error) {
	return c.search(ctx, "movieNm", title, page, perPage)
}

// SearchByDirector runs searchMovieList with directorNm.
func (c *KobisClient) SearchByDirector(ctx context.Context, director string, page, perPage int) (*KobisSearchResult, error) {
	return c.search(ctx, "directorNm", director, page, perPage)
}

func (c *KobisClient) search(ctx context.Context, field, q string, page, perPage int) (*KobisSearchResult, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}
	params := url.Values{}
	params.Set(field, q)
	params.Set("curPage", strconv.Itoa(page))
	params.Set("itemPerPage", strconv.Itoa(perPage))

	var body struct {
		Fault           *KobisFault        `json:"faultInfo"`
		MovieListResult *KobisSearchResult `json:"movieListResult"`
	}
	if err := c.get(ctx, "searchMovieList.json", params, &body); err != nil {
		return nil, err
	}
	if body.Fault != nil {
		return nil, body.Fault
	}
	if body.MovieListResult == nil {
		return nil, errors.New("invalid KOBIS API response: missing movieListResult")
	}
	return body.MovieListResult, nil
}

// MovieInfo runs searchMovieInfo for one movie code.
func (c *KobisClient) MovieInfo(ctx context.Context, movieCd string) (*KobisMovieInfo, error) {
	params := url.Values{}
	params.Set("movieCd", movieCd)

	var body struct {
		Fault           *KobisFault `json:"faultInfo"`
		MovieInfoResult *struct {
			MovieInfo *KobisMovieInfo `json:"movieInfo"`
		} `json:"movieInfoResult"`
	}
	if err := c.get(ctx, "searchMovieInfo.json", params, &body); err != nil {
		return nil, err
	}
	if body.Fault != nil {
		return nil, body.Fault
	}
	if body.MovieInfoResult == nil || body.MovieInfoResult.MovieInfo == nil {
		return nil, errors.New("invalid KOBIS API response: missing movieInfoResult")
	}
	return body.MovieInfoResult.MovieInfo, nil
}

// get retries transport failures and 5xx answers with linear backoff.
// Fault envelopes and 4xx answers are returned straight away.
func (c *KobisClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrKobisNotConfigured
	}
	params.Set("key", c.apiKey)
	u := c.baseURL + "/" + endpoint + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			c.log.Infof("retrying KOBIS %s, attempt %d/%d", endpoint, attempt, c.maxRetries)
		}
		retry, err := c.do(ctx, u, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	c.log.Warnf("KOBIS %s failed: %v", endpoint, lastErr)
	return lastErr
}

func (c *KobisClient) do(ctx context.Context, u string, out any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return ctx.Err() == nil, fmt.Errorf("KOBIS API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return true, fmt.Errorf("KOBIS API request failed: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("KOBIS API request failed: %s", resp.Status)
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode KOBIS response: %w", err)
	}
	return false, nil
}
