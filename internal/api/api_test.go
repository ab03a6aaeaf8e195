package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashdeck/internal/api"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/testutil/mocks"
	"github.com/vytor/flashdeck/internal/worker"
)

type healthFunc func(ctx context.Context) error

func (f healthFunc) Healthy(ctx context.Context) error { return f(ctx) }

type APISuite struct {
	suite.Suite
	decks      *mocks.MockDeckProgressService
	multimedia *mocks.MockMultimediaService
	jobs       *mocks.MockJobQueue
	healthErr  error
	handler    http.Handler
}

func (s *APISuite) SetupTest() {
	s.decks = new(mocks.MockDeckProgressService)
	s.multimedia = new(mocks.MockMultimediaService)
	s.jobs = new(mocks.MockJobQueue)
	s.healthErr = nil

	srv := &api.Server{
		Decks:      s.decks,
		Multimedia: s.multimedia,
		Jobs:       s.jobs,
		Health:     healthFunc(func(context.Context) error { return s.healthErr }),
		IsAdmin:    func(u string) bool { return u == "root" },
	}
	s.handler = srv.Routes()
}

func (s *APISuite) TearDownTest() {
	s.decks.AssertExpectations(s.T())
	s.multimedia.AssertExpectations(s.T())
	s.jobs.AssertExpectations(s.T())
}

func (s *APISuite) do(method, target, body, username string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if username != "" {
		req.AddCookie(&http.Cookie{Name: "username", Value: username})
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func isUser(name string, admin bool) any {
	return mock.MatchedBy(func(u *models.User) bool {
		return u != nil && u.Username == name && u.IsAdmin == admin
	})
}

func (s *APISuite) TestCreateSession_SetsCookie() {
	rec, out := s.do(http.MethodPost, "/api/session", `{"username":"  root "}`, "")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal(true, out["success"])
	s.Assert().Equal("root", out["username"])
	s.Assert().Equal(true, out["isAdmin"])

	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Assert().Equal("username", cookies[0].Name)
	s.Assert().Equal("root", cookies[0].Value)
	s.Assert().True(cookies[0].HttpOnly)
}

func (s *APISuite) TestCreateSession_RejectsBlankUsername() {
	rec, out := s.do(http.MethodPost, "/api/session", `{"username":"  "}`, "")

	s.Assert().Equal(http.StatusBadRequest, rec.Code)
	s.Assert().Equal(false, out["success"])
	s.Assert().Equal(errors.ErrCodeBadRequest, out["code"])
}

func (s *APISuite) TestDeleteSession_ClearsCookie() {
	rec, out := s.do(http.MethodDelete, "/api/session", "", "alice")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal(true, out["success"])
	cookies := rec.Result().Cookies()
	s.Require().Len(cookies, 1)
	s.Assert().Equal(-1, cookies[0].MaxAge)
}

func (s *APISuite) TestSession_UsernameSurvivesCookieRoundTrip() {
	for _, name := range []string{"josé", `a"b`, "bob;x", `back\slash`, "alice smith", "50%"} {
		rec, out := s.do(http.MethodPost, "/api/session", fmt.Sprintf(`{"username":%q}`, name), "")
		s.Require().Equal(http.StatusOK, rec.Code, name)
		s.Assert().Equal(name, out["username"])

		req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}
		got := httptest.NewRecorder()
		s.handler.ServeHTTP(got, req)

		var session map[string]any
		s.Require().NoError(json.Unmarshal(got.Body.Bytes(), &session))
		s.Assert().Equal(http.StatusOK, got.Code, name)
		s.Assert().Equal(name, session["username"], "session resolves to the user who logged in")
	}
}

func (s *APISuite) TestSession_MalformedCookieIsAnonymous() {
	rec, out := s.do(http.MethodGet, "/api/session", "", "%zz")

	s.Assert().Equal(http.StatusUnauthorized, rec.Code)
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, out["code"])
}

func (s *APISuite) TestCurrentSession() {
	rec, out := s.do(http.MethodGet, "/api/session", "", "")
	s.Assert().Equal(http.StatusUnauthorized, rec.Code)
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, out["code"])

	rec, out = s.do(http.MethodGet, "/api/session", "", "alice")
	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal("alice", out["username"])
	s.Assert().Equal(false, out["isAdmin"])
}

func (s *APISuite) TestListDecks() {
	s.decks.On("ListDecks", mock.Anything).Return([]string{"Spanish", "French"}, nil)

	rec, out := s.do(http.MethodGet, "/api/decks", "", "")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal([]any{"Spanish", "French"}, out["decks"])
	s.Assert().NotEmpty(rec.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestDeckFlashcards_Anonymous() {
	s.decks.On("GetFlashcardsForDeck", mock.Anything, "Spanish", (*models.User)(nil)).
		Return(nil, errors.NewNotLoggedInError())

	rec, out := s.do(http.MethodGet, "/api/decks/Spanish/flashcards", "", "")

	s.Assert().Equal(http.StatusUnauthorized, rec.Code)
	s.Assert().Equal(false, out["success"])
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, out["code"])
	s.Assert().NotEmpty(out["message"])
}

func (s *APISuite) TestDeckFlashcards_DecodesDeckName() {
	fc := &models.DeckFlashcards{
		Deck: "Sample Deck",
		Cards: []models.CardWithProgress{
			{Card: models.Card{ID: "c1", SideA: "gato", SideB: "cat"}, Progress: models.NewProgress(), IsDue: true},
		},
		TotalCards: 1,
		DueCards:   1,
	}
	s.decks.On("GetFlashcardsForDeck", mock.Anything, "Sample Deck", isUser("alice", false)).Return(fc, nil)

	rec, out := s.do(http.MethodGet, "/api/decks/Sample%20Deck/flashcards", "", "alice")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal("Sample Deck", out["deck"])
	s.Assert().EqualValues(1, out["totalCards"])
	s.Assert().EqualValues(1, out["dueCards"])
	cards := out["cards"].([]any)
	s.Require().Len(cards, 1)
	s.Assert().Equal(true, cards[0].(map[string]any)["isDue"])
}

func (s *APISuite) TestRateCard() {
	nextDue := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	s.decks.On("RecordCardRating", mock.Anything, "Spanish", "c1", isUser("root", true), 2).
		Return(&models.RatingResult{
			CardID:     "c1",
			Rating:     2,
			LastReview: time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC),
			NextDue:    nextDue,
			Interval:   7,
		}, nil)

	rec, out := s.do(http.MethodPost, "/api/decks/Spanish/cards/c1/rating", `{"rating":2}`, "root")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal("c1", out["cardId"])
	s.Assert().EqualValues(7, out["interval"])
	s.Assert().Equal("2024-03-11T00:00:00Z", out["nextDue"])
}

func (s *APISuite) TestRateCard_BadBodies() {
	for _, body := range []string{`{}`, `not json`, `{"rating":"good"}`, `{"rating":1,"extra":true}`} {
		rec, out := s.do(http.MethodPost, "/api/decks/Spanish/cards/c1/rating", body, "alice")
		s.Assert().Equal(http.StatusBadRequest, rec.Code, body)
		s.Assert().Equal(errors.ErrCodeBadRequest, out["code"], body)
	}
	s.decks.AssertNotCalled(s.T(), "RecordCardRating", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *APISuite) TestRateCard_InvalidRating() {
	s.decks.On("RecordCardRating", mock.Anything, "Spanish", "c1", mock.Anything, 9).
		Return(nil, errors.NewInvalidRatingError(9))

	rec, out := s.do(http.MethodPost, "/api/decks/Spanish/cards/c1/rating", `{"rating":9}`, "alice")

	s.Assert().Equal(http.StatusBadRequest, rec.Code)
	s.Assert().Equal(errors.ErrCodeInvalidRating, out["code"])
}

func (s *APISuite) TestResetDeck() {
	s.decks.On("ResetDeckProgress", mock.Anything, "Spanish", isUser("alice", false)).Return(nil)

	rec, out := s.do(http.MethodPost, "/api/decks/Spanish/reset", "", "alice")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal(true, out["success"])
	s.Assert().Contains(out["message"], "Spanish")
}

func (s *APISuite) TestResetDeck_NotFound() {
	s.decks.On("ResetDeckProgress", mock.Anything, "Nope", mock.Anything).Return(errors.NewDeckNotFoundError("Nope"))

	rec, out := s.do(http.MethodPost, "/api/decks/Nope/reset", "", "alice")

	s.Assert().Equal(http.StatusNotFound, rec.Code)
	s.Assert().Equal(errors.ErrCodeDeckNotFound, out["code"])
}

func (s *APISuite) TestDueCards() {
	s.decks.On("GetUserDueCards", mock.Anything, isUser("alice", false)).Return(&models.UserDueCards{
		DueCardsByDeck: map[string]models.DeckDueSummary{
			"A": {TotalCards: 2, DueCount: 1},
			"B": {Error: "deck B is missing required columns: [sideB]", ErrorCode: errors.ErrCodeSchema},
		},
		TotalDue: 1,
	}, nil)

	rec, out := s.do(http.MethodGet, "/api/due", "", "alice")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().EqualValues(1, out["totalDue"])
	byDeck := out["dueCardsByDeck"].(map[string]any)
	s.Assert().Equal(errors.ErrCodeSchema, byDeck["B"].(map[string]any)["errorCode"])
}

func (s *APISuite) TestPreviewMultimedia() {
	audio := "https://a/gato.mp3"
	s.multimedia.On("PreviewMultimediaContent", mock.Anything, "gato").Return(&models.MultimediaResult{
		Word: "gato", Success: true, AudioURL: &audio, Message: "audio found; image unavailable: no image found",
	}, nil)

	rec, out := s.do(http.MethodGet, "/api/multimedia/preview?word=gato", "", "")

	s.Assert().Equal(http.StatusOK, rec.Code)
	s.Assert().Equal(true, out["success"])
	s.Assert().Equal(audio, out["audioUrl"])
	s.Assert().Nil(out["imageUrl"])
}

func (s *APISuite) TestPreviewMultimedia_Unavailable() {
	s.multimedia.On("PreviewMultimediaContent", mock.Anything, "xyzzy").
		Return(nil, errors.NewServiceUnavailableError("audio unavailable: x; image unavailable: y"))

	rec, out := s.do(http.MethodGet, "/api/multimedia/preview?word=xyzzy", "", "")

	s.Assert().Equal(http.StatusServiceUnavailable, rec.Code)
	s.Assert().Equal(errors.ErrCodeServiceUnavailable, out["code"])
	s.Assert().Equal("audio unavailable: x; image unavailable: y", out["message"])
}

func (s *APISuite) TestPrefetch_DeduplicatesWords() {
	s.decks.On("ListCards", mock.Anything, "Spanish").Return([]models.Card{
		{ID: "1", SideA: "Gato"}, {ID: "2", SideA: "gato "}, {ID: "3", SideA: "perro"}, {ID: "4", SideA: " "},
	}, nil)
	s.jobs.On("EnqueuePrefetch", "gato").Return(nil).Once()
	s.jobs.On("EnqueuePrefetch", "perro").Return(nil).Once()

	rec, out := s.do(http.MethodPost, "/api/decks/Spanish/multimedia/prefetch", "", "root")

	s.Assert().Equal(http.StatusAccepted, rec.Code)
	s.Assert().Equal(true, out["success"])
	s.Assert().EqualValues(2, out["queued"])
}

func (s *APISuite) TestPrefetch_StopsWhenQueueFull() {
	s.decks.On("ListCards", mock.Anything, "Spanish").Return([]models.Card{
		{ID: "1", SideA: "uno"}, {ID: "2", SideA: "dos"}, {ID: "3", SideA: "tres"},
	}, nil)
	s.jobs.On("EnqueuePrefetch", "uno").Return(nil).Once()
	s.jobs.On("EnqueuePrefetch", "dos").Return(worker.ErrQueueFull).Once()

	rec, out := s.do(http.MethodPost, "/api/decks/Spanish/multimedia/prefetch", "", "root")

	s.Assert().Equal(http.StatusAccepted, rec.Code)
	s.Assert().EqualValues(1, out["queued"])
	s.Assert().Contains(out["message"], "queued 1 of 3 words")
	s.Assert().Contains(out["message"], "queue is full")
	s.jobs.AssertNotCalled(s.T(), "EnqueuePrefetch", "tres")
}

func (s *APISuite) TestPrefetch_RequiresAdminSession() {
	rec, out := s.do(http.MethodPost, "/api/decks/Spanish/multimedia/prefetch", "", "")
	s.Assert().Equal(http.StatusUnauthorized, rec.Code)
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, out["code"])

	rec, out = s.do(http.MethodPost, "/api/decks/Spanish/multimedia/prefetch", "", "alice")
	s.Assert().Equal(http.StatusForbidden, rec.Code)
	s.Assert().Equal(errors.ErrCodeForbidden, out["code"])

	s.decks.AssertNotCalled(s.T(), "ListCards", mock.Anything, mock.Anything)
	s.jobs.AssertNotCalled(s.T(), "EnqueuePrefetch", mock.Anything)
}

func (s *APISuite) TestPanicBecomesJSON500() {
	s.decks.On("ListDecks", mock.Anything).Run(func(mock.Arguments) { panic("boom") })

	rec, out := s.do(http.MethodGet, "/api/decks", "", "")

	s.Assert().Equal(http.StatusInternalServerError, rec.Code)
	s.Assert().Equal(false, out["success"])
	s.Assert().Equal(errors.ErrCodeInternal, out["code"])
}

func (s *APISuite) TestUnwrappedErrorIsInternal() {
	s.decks.On("ListDecks", mock.Anything).Return(nil, fmt.Errorf("disk on fire"))

	rec, out := s.do(http.MethodGet, "/api/decks", "", "")

	s.Assert().Equal(http.StatusInternalServerError, rec.Code)
	s.Assert().Equal("internal server error", out["message"])
}

func (s *APISuite) TestHealthAndReadiness() {
	rec, _ := s.do(http.MethodGet, "/healthz", "", "")
	s.Assert().Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/readyz", "", "")
	s.Assert().Equal(http.StatusOK, rec.Code)

	s.healthErr = fmt.Errorf("database is locked")
	rec, out := s.do(http.MethodGet, "/readyz", "", "")
	s.Assert().Equal(http.StatusServiceUnavailable, rec.Code)
	s.Assert().Equal(false, out["success"])
}

func (s *APISuite) TestUnknownRoute() {
	rec, out := s.do(http.MethodGet, "/api/nothing", "", "")

	s.Assert().Equal(http.StatusNotFound, rec.Code)
	s.Assert().Equal(errors.ErrCodeNotFound, out["code"])
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func TestSecurityHeaders(t *testing.T) {
	srv := &api.Server{}
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}
