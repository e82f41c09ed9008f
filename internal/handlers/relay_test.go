package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/relay"
	"realtime-service/internal/telemetry"
)

// registryRecorder stands in for the hub and remembers every fan-out.
type registryRecorder struct {
	sends map[string][][]byte
}

func newRegistryRecorder() *registryRecorder {
	return &registryRecorder{sends: make(map[string][][]byte)}
}

func (r *registryRecorder) Send(groupKey string, payload []byte) (int, int) {
	r.sends[groupKey] = append(r.sends[groupKey], payload)
	return 1, 0
}

type relayHandlerFixture struct {
	registry  *registryRecorder
	publisher *mocks.PublisherMock
	router    *gin.Engine
}

func newRelayHandlerFixture(t *testing.T) *relayHandlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := newRegistryRecorder()
	publisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(publisher, "audit.realtime", "realtime-service", "test")
	handler := NewRelayHandler(relay.New(registry, nil), audit)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", "staff-1")
		c.Next()
	})
	router.POST("/internal/announcements/broadcast", handler.BroadcastAnnouncement)
	router.POST("/internal/competitions/notify", handler.NotifyCompetition)

	return &relayHandlerFixture{registry: registry, publisher: publisher, router: router}
}

func (f *relayHandlerFixture) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestBroadcastAnnouncementGlobal(t *testing.T) {
	f := newRelayHandlerFixture(t)
	f.publisher.On("Publish", mock.Anything, "audit.realtime", mock.Anything).Return(nil).Once()

	rec := f.post(t, "/internal/announcements/broadcast",
		`{"id":"a1","title":"Exams","content":"Schedule posted"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp["delivered"])
	assert.Equal(t, 0, resp["dropped"])

	require.Len(t, f.registry.sends[relay.AnnouncementsKey], 1)
	var event map[string]any
	require.NoError(t, json.Unmarshal(f.registry.sends[relay.AnnouncementsKey][0], &event))
	assert.Equal(t, "announcement_message", event["type"])
	f.publisher.AssertExpectations(t)
}

func TestBroadcastAnnouncementSchoolScoped(t *testing.T) {
	f := newRelayHandlerFixture(t)
	f.publisher.On("Publish", mock.Anything, "audit.realtime", mock.Anything).Return(nil).Once()

	rec := f.post(t, "/internal/announcements/broadcast",
		`{"id":"a2","content":"Snow day","schoolId":"s1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.registry.sends[relay.SchoolAnnouncementsKey("s1")], 1)
	assert.Empty(t, f.registry.sends[relay.AnnouncementsKey])
}

func TestBroadcastAnnouncementRejectsMissingContent(t *testing.T) {
	f := newRelayHandlerFixture(t)

	rec := f.post(t, "/internal/announcements/broadcast", `{"id":"a3","title":"no body"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.registry.sends)
	f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotifyCompetitionReachesBothParticipants(t *testing.T) {
	f := newRelayHandlerFixture(t)

	rec := f.post(t, "/internal/competitions/notify",
		`{"senderId":"u1","receiverId":"u2","competition":{"id":"c1","status":"accepted"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["delivered"])

	for _, userID := range []string{"u1", "u2"} {
		payloads := f.registry.sends[relay.UserKey(userID)]
		require.Len(t, payloads, 1, "user %s", userID)
		var event map[string]any
		require.NoError(t, json.Unmarshal(payloads[0], &event))
		assert.Equal(t, "competition_update", event["type"])
	}
}

func TestNotifyCompetitionRejectsIncompleteBody(t *testing.T) {
	f := newRelayHandlerFixture(t)

	for _, body := range []string{
		`{"receiverId":"u2","competition":{"id":"c1"}}`,
		`{"senderId":"u1","competition":{"id":"c1"}}`,
		`{"senderId":"u1","receiverId":"u2"}`,
	} {
		rec := f.post(t, "/internal/competitions/notify", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
	assert.Empty(t, f.registry.sends)
}
