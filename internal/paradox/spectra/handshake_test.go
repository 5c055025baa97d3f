package spectra

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/paradox2mqtt/internal/paradox"
)

var testAnnouncement = paradox.Announcement{
	ProductID: paradox.ProductSpectraSP6000,
	Firmware:  paradox.Firmware{Version: 4, Revision: 72, Build: 3},
	PanelID:   0x2a2a,
}

func replyFrame(lead byte) []byte {
	p := make([]byte, paradox.PayloadSize)
	p[0] = lead
	return paradox.Seal(p)
}

func TestHandshakeOutcomes(t *testing.T) {
	tests := []struct {
		name  string
		reply []byte
		err   error
		state HandshakeState
		fail  error
	}{
		{name: "accepted", reply: replyFrame(0x10), state: Authenticated},
		{name: "error message", reply: replyFrame(0x70), state: Rejected, fail: paradox.ErrAuthenticationRejected},
		{name: "error with status", reply: replyFrame(0x72), state: Rejected, fail: paradox.ErrAuthenticationRejected},
		{name: "announcement again", reply: replyFrame(0x00), state: Rejected, fail: paradox.ErrAuthenticationRejected},
		{name: "timeout", err: paradox.ErrTimeout, state: Rejected, fail: paradox.ErrTimeout},
		{name: "unexpected", reply: replyFrame(0x42), state: Rejected, fail: paradox.ErrUnexpectedReply},
		{name: "confirmation with flags", reply: replyFrame(0x11), state: Rejected, fail: paradox.ErrUnexpectedReply},
		{name: "confirmation high flags", reply: replyFrame(0x1f), state: Rejected, fail: paradox.ErrUnexpectedReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &scriptedTransport{}
			tr.push(tt.reply, tt.err)
			h := NewHandshake(tr, nil, nil)
			assert.Equal(t, Disconnected, h.State())

			err := h.Authenticate(context.Background(), testAnnouncement, "1234")
			if tt.fail == nil {
				require.NoError(t, err)
				require.NotNil(t, h.Response())
			} else {
				assert.ErrorIs(t, err, tt.fail)
				assert.Nil(t, h.Response())
			}
			assert.Equal(t, tt.state, h.State())
			assert.True(t, h.State().Terminal())
		})
	}
}

func TestHandshakeRequest(t *testing.T) {
	tr := &scriptedTransport{}
	tr.push(replyFrame(0x10), nil)
	h := NewHandshake(tr, nil, nil)
	require.NoError(t, h.Authenticate(context.Background(), testAnnouncement, "1234"))

	sent := tr.requests()
	require.Len(t, sent, 1)
	req := &InitializeCommunication{}
	require.NoError(t, req.UnmarshalBinary(sent[0]))
	assert.Equal(t, testAnnouncement.ProductID, req.ProductID)
	assert.Equal(t, testAnnouncement.Firmware, req.Firmware)
	assert.Equal(t, testAnnouncement.PanelID, req.PanelID)
	assert.Equal(t, [2]byte{0x12, 0x34}, req.PCPassword)
	assert.Equal(t, uint32(0), req.UserCode)
	assert.Equal(t, paradox.SourceWinloadIP, req.Origin.SourceID)
}

func TestHandshakeRestartsAfterRejection(t *testing.T) {
	tr := &scriptedTransport{}
	tr.push(replyFrame(0x70), nil)
	tr.push(replyFrame(0x10), nil)
	h := NewHandshake(tr, nil, nil)

	assert.Error(t, h.Authenticate(context.Background(), testAnnouncement, "1234"))
	assert.Equal(t, Rejected, h.State())
	assert.NoError(t, h.Authenticate(context.Background(), testAnnouncement, "1234"))
	assert.Equal(t, Authenticated, h.State())
}

func TestHandshakeBadPassword(t *testing.T) {
	tr := &scriptedTransport{}
	h := NewHandshake(tr, nil, nil)
	err := h.Authenticate(context.Background(), testAnnouncement, "12")
	assert.ErrorIs(t, err, paradox.ErrFieldRange)
	assert.Equal(t, Rejected, h.State())
	assert.Empty(t, tr.requests())
}
