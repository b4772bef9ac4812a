package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vehicle_parking/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSQS struct {
	mock.Mock
}

func (m *mockSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sqs.SendMessageOutput), args.Error(1)
}

func TestSQSPublisherSendsJSONBody(t *testing.T) {
	client := new(mockSQS)
	pub := NewSQSPublisher(client, "https://sqs.local/queue", zerolog.Nop())
	event := NewEvent(domain.EventReservationBooked, 3, time.Now())
	event.SpotID = 12

	client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
		var got domain.ParkingEvent
		if err := json.Unmarshal([]byte(aws.ToString(in.MessageBody)), &got); err != nil {
			return false
		}
		attr := in.MessageAttributes["event_type"]
		return aws.ToString(in.QueueUrl) == "https://sqs.local/queue" &&
			got.EventID == event.EventID && got.SpotID == 12 &&
			aws.ToString(attr.StringValue) == string(domain.EventReservationBooked)
	})).Return(&sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil).Once()

	require.NoError(t, pub.Publish(context.Background(), event))
	client.AssertExpectations(t)
}

func TestSQSPublisherWrapsError(t *testing.T) {
	client := new(mockSQS)
	pub := NewSQSPublisher(client, "q", zerolog.Nop())
	boom := errors.New("boom")
	client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, boom)

	err := pub.Publish(context.Background(), NewEvent(domain.EventLotCreated, 1, time.Now()))
	assert.ErrorIs(t, err, boom)
}

type recordingPublisher struct {
	events []domain.ParkingEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, e domain.ParkingEvent) error {
	r.events = append(r.events, e)
	return r.err
}

func TestMultiPublishesToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &recordingPublisher{}
	b := &recordingPublisher{err: boom}
	m := Multi{a, nil, b, Nop{}}

	err := m.Publish(context.Background(), NewEvent(domain.EventLotDeleted, 1, time.Now()))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestHubBroadcastsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	event := NewEvent(domain.EventReservationReleased, 4, time.Now())
	event.SpotStatus = domain.SpotAvailable
	require.NoError(t, hub.Publish(context.Background(), event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.ParkingEvent
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, domain.SpotAvailable, got.SpotStatus)
}

func TestHubOmitsOwnerFields(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zerolog.Nop())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	cost := 20.0
	event := NewEvent(domain.EventReservationReleased, 4, time.Now())
	event.SpotID = 9
	event.SpotStatus = domain.SpotAvailable
	event.ReservationID = 7
	event.UserID = 2
	event.VehicleNo = "KA01AB1234"
	event.Cost = &cost
	require.NoError(t, hub.Publish(context.Background(), event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(msg, &raw))
	assert.EqualValues(t, 9, raw["spot_id"])
	assert.Equal(t, string(domain.SpotAvailable), raw["spot_status"])
	for _, field := range []string{"user_id", "vehicle_no", "reservation_id", "cost"} {
		assert.NotContains(t, raw, field)
	}
	// The caller's event is untouched for the other sinks.
	assert.Equal(t, "KA01AB1234", event.VehicleNo)
}

func TestHubUnregisterAfterShutdownReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zerolog.Nop())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	returned := make(chan struct{})
	go func() {
		hub.Unregister(nil)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("Unregister blocked after the hub stopped")
	}
}
