package imagestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestS3Store_KeyFromURL(t *testing.T) {
	s := &s3Store{bucket: "eventhub-images", region: "eu-west-1"}

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "own bucket url",
			url:  "https://eventhub-images.s3.eu-west-1.amazonaws.com/events/abc.png",
			want: "events/abc.png",
		},
		{
			name:    "foreign host",
			url:     "https://other-bucket.s3.eu-west-1.amazonaws.com/events/abc.png",
			wantErr: true,
		},
		{
			name:    "no key",
			url:     "https://eventhub-images.s3.eu-west-1.amazonaws.com/",
			wantErr: true,
		},
		{
			name:    "not a url",
			url:     "://bad",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.keyFromURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
