package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTXTRoundTrip(t *testing.T) {
	txt := encodeTXT(BrokerInfo{InstanceName: "hub", Port: 4180, Name: "Garage Hub"})
	assert.Contains(t, txt, "pv=1")

	name, err := decodeTXT(txt)
	require.NoError(t, err)
	assert.Equal(t, "Garage Hub", name)
}

func TestDecodeTXT(t *testing.T) {
	tests := []struct {
		name     string
		txt      []string
		wantName string
		wantErr  bool
	}{
		{"NameOptional", []string{"pv=1"}, "", false},
		{"IgnoresUnknownKeys", []string{"pv=1", "x=y"}, "", false},
		{"IgnoresMalformedRecords", []string{"pv=1", "garbage"}, "", false},
		{"MissingRevision", []string{"nm=Hub"}, "", true},
		{"WrongRevision", []string{"pv=2"}, "", true},
		{"BadRevision", []string{"pv=abc"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := decodeTXT(tt.txt)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestBrokerServiceEndpoint(t *testing.T) {
	svc := &BrokerService{Host: "hub.local.", Port: 4180, Addresses: []string{"192.168.1.10"}}
	assert.Equal(t, "192.168.1.10:4180", svc.Endpoint())

	svc.Addresses = nil
	assert.Equal(t, "hub.local:4180", svc.Endpoint())
}
