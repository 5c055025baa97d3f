package paradox

import "fmt"

// SourceID identifies the controller that originates a request.
type SourceID uint8

const (
	SourceNonValid      SourceID = 0
	SourceWinloadDirect SourceID = 1
	SourceWinloadIP     SourceID = 2
	SourceWinloadGSM    SourceID = 3
	SourceWinloadDialer SourceID = 4
	SourceNEwareDirect  SourceID = 5
	SourceNEwareIP      SourceID = 6
	SourceNEwareGSM     SourceID = 7
	SourceNEwareDialer  SourceID = 8
	SourceIPDirect      SourceID = 9
	SourceVDMP3Direct   SourceID = 10
	SourceVDMP3GSM      SourceID = 11
)

var sourceNames = map[SourceID]string{
	SourceNonValid:      "NonValid_Source",
	SourceWinloadDirect: "Winload_Direct",
	SourceWinloadIP:     "Winload_IP",
	SourceWinloadGSM:    "Winload_GSM",
	SourceWinloadDialer: "Winload_Dialer",
	SourceNEwareDirect:  "NeWare_Direct",
	SourceNEwareIP:      "NeWare_IP",
	SourceNEwareGSM:     "NeWare_GSM",
	SourceNEwareDialer:  "NeWare_Dialer",
	SourceIPDirect:      "IP_Direct",
	SourceVDMP3Direct:   "VDMP3_Direct",
	SourceVDMP3GSM:      "VDMP3_GSM",
}

func (s SourceID) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SourceID(%d)", uint8(s))
}

// ProductID identifies the panel model.
type ProductID uint8

const (
	ProductDigiplexV13    ProductID = 0
	ProductDigiplexV2     ProductID = 1
	ProductDigiplexNE     ProductID = 2
	ProductDigiplexEVO48  ProductID = 3
	ProductDigiplexEVO96  ProductID = 4
	ProductDigiplexEVO192 ProductID = 5
	ProductSpectraSP5500  ProductID = 21
	ProductSpectraSP6000  ProductID = 22
	ProductSpectraSP7000  ProductID = 23
	ProductMagellanMG5000 ProductID = 64
	ProductMagellanMG5050 ProductID = 65
)

var productNames = map[ProductID]string{
	ProductDigiplexV13:    "DIGIPLEX_v13",
	ProductDigiplexV2:     "DIGIPLEX_v2",
	ProductDigiplexNE:     "DIGIPLEX_NE",
	ProductDigiplexEVO48:  "DIGIPLEX_EVO_48",
	ProductDigiplexEVO96:  "DIGIPLEX_EVO_96",
	ProductDigiplexEVO192: "DIGIPLEX_EVO_192",
	ProductSpectraSP5500:  "SPECTRA_SP5500",
	ProductSpectraSP6000:  "SPECTRA_SP6000",
	ProductSpectraSP7000:  "SPECTRA_SP7000",
	ProductMagellanMG5000: "MAGELLAN_MG5000",
	ProductMagellanMG5050: "MAGELLAN_MG5050",
}

func (p ProductID) String() string {
	if name, ok := productNames[p]; ok {
		return name
	}
	return fmt.Sprintf("ProductID(%d)", uint8(p))
}

// MarshalText lets product ids show up by name in JSON output.
func (p ProductID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, including the
// ProductID(n) form for unnamed models.
func (p *ProductID) UnmarshalText(text []byte) error {
	s := string(text)
	for id, name := range productNames {
		if name == s {
			*p = id
			return nil
		}
	}
	var n uint8
	if _, err := fmt.Sscanf(s, "ProductID(%d)", &n); err != nil {
		return fmt.Errorf("%w: unknown product %q", ErrFieldRange, s)
	}
	*p = ProductID(n)
	return nil
}
