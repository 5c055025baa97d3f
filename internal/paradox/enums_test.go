package paradox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductIDText(t *testing.T) {
	for _, id := range []ProductID{ProductSpectraSP6000, ProductMagellanMG5050, ProductID(99)} {
		text, err := id.MarshalText()
		require.NoError(t, err)
		var back ProductID
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, id, back)
	}

	var p ProductID
	assert.ErrorIs(t, p.UnmarshalText([]byte("TOASTER")), ErrFieldRange)
}

func TestAnnouncementJSON(t *testing.T) {
	ann := Announcement{ProductID: ProductMagellanMG5000, Firmware: Firmware{Version: 6, Revision: 5, Build: 1}, PanelID: 42}
	data, err := json.Marshal(ann)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"product_id":"MAGELLAN_MG5000"`)

	var back Announcement
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, ann, back)
}

func TestSourceIDString(t *testing.T) {
	assert.Equal(t, "Winload_IP", SourceWinloadIP.String())
	assert.Equal(t, "SourceID(200)", SourceID(200).String())
}
