package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daemonp/paradox2mqtt/internal/cache"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
	"github.com/daemonp/paradox2mqtt/internal/paradox/spectra"
)

func TestParseHex(t *testing.T) {
	frame, err := parseHex("0x5F 20:00\n01")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x5f, 0x20, 0x00, 0x01}, frame)

	_, err = parseHex("zz")
	assert.Error(t, err)
}

func TestDecodeFrameClassifies(t *testing.T) {
	frame, err := (&spectra.ErrorMessage{Status: 0x02, Code: spectra.ErrorInvalidPCPassword}).MarshalBinary()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, decodeFrame(&out, frame, ""))

	var got struct {
		Kind    string                 `json:"kind"`
		Message map[string]interface{} `json:"message"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "ErrorMessage", got.Kind)
	assert.Equal(t, float64(spectra.ErrorInvalidPCPassword), got.Message["Code"])
}

func TestDecodeFrameAsKind(t *testing.T) {
	frame, err := (&paradox.StartCommunicationResponse{ProductID: paradox.ProductSpectraSP7000, PanelID: 7}).MarshalBinary()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, decodeFrame(&out, frame, "StartCommunicationResponse"))
	assert.Contains(t, out.String(), `"kind": "StartCommunicationResponse"`)
	assert.Contains(t, out.String(), `"ProductID": "SPECTRA_SP7000"`)

	assert.ErrorIs(t, decodeFrame(&out, frame, "NoSuchKind"), paradox.ErrRegistryMiss)
}

func TestDecodeFrameRejectsCorruption(t *testing.T) {
	frame, err := (&spectra.ErrorMessage{Status: 0x02}).MarshalBinary()
	require.NoError(t, err)
	frame[5] ^= 0x01
	assert.ErrorIs(t, decodeFrame(&bytes.Buffer{}, frame, ""), paradox.ErrMalformedFrame)
}

func TestPrintLabels(t *testing.T) {
	var out bytes.Buffer
	printLabels(&out, &cache.Data{
		Panel: paradox.Announcement{ProductID: paradox.ProductSpectraSP6000, PanelID: 0x0102},
		Labels: map[paradox.EntityClass]map[int]paradox.Properties{
			paradox.ClassZone: {10: {"label": "Garage"}, 2: {"label": "Hall"}},
		},
		LastUpdate: time.Date(2024, 5, 17, 8, 30, 0, 0, time.UTC),
	})
	assert.Equal(t, "Panel SPECTRA_SP6000, firmware 0.0 build 0, id 0102, updated 2024-05-17 08:30:00\n"+
		"zone:\n"+
		"    2  Hall\n"+
		"   10  Garage\n", out.String())
}
