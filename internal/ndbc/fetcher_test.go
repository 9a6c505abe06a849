package ndbc

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/bbernstein/surfcast/backend-go/pkg/http/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidStationID(t *testing.T) {
	t.Parallel()

	for id, want := range map[string]bool{
		"46222":         true,
		"LJPC1":         true,
		"41001":         true,
		"":              false,
		"abc":           false,
		"../etc/passwd": false,
		"46222.txt":     false,
		"123456789":     false,
	} {
		assert.Equal(t, want, ValidStationID(id), id)
	}
}

func TestFetchRealtime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		stationID  string
		getFunc    func(ctx context.Context, path string) (*client.Response, error)
		want       string
		wantStatus int
		wantErr    bool
	}{
		{
			name:      "success",
			stationID: "46222",
			getFunc: func(ctx context.Context, path string) (*client.Response, error) {
				if path != "/data/realtime2/46222.txt" {
					return &client.Response{StatusCode: http.StatusNotFound}, nil
				}
				return &client.Response{StatusCode: http.StatusOK, Body: []byte(sampleFeed())}, nil
			},
			want: sampleFeed(),
		},
		{
			name:      "not found",
			stationID: "99999",
			getFunc: func(ctx context.Context, path string) (*client.Response, error) {
				return &client.Response{StatusCode: http.StatusNotFound}, nil
			},
			wantStatus: http.StatusNotFound,
			wantErr:    true,
		},
		{
			name:      "transport failure",
			stationID: "46222",
			getFunc: func(ctx context.Context, path string) (*client.Response, error) {
				return nil, errors.New("connection refused")
			},
			wantErr: true,
		},
		{
			name:      "nil response",
			stationID: "46222",
			getFunc: func(ctx context.Context, path string) (*client.Response, error) {
				return nil, nil
			},
			wantErr: true,
		},
		{
			name:      "invalid station id is never requested",
			stationID: "../x",
			getFunc: func(ctx context.Context, path string) (*client.Response, error) {
				t.Fatalf("unexpected request to %s", path)
				return nil, nil
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := client.New(client.Options{})
			c.GetFunc = tt.getFunc

			body, err := NewFetcher(c).FetchRealtime(context.Background(), tt.stationID)
			if tt.wantErr {
				var fetchErr *FetchError
				require.ErrorAs(t, err, &fetchErr)
				assert.Equal(t, tt.stationID, fetchErr.StationID)
				assert.Equal(t, tt.wantStatus, fetchErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, body)
		})
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &FetchError{StationID: "46222", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "46222")

	status := &FetchError{StationID: "46222", StatusCode: http.StatusBadGateway}
	assert.Contains(t, status.Error(), "502")
}
