package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/daemonp/paradox2mqtt/internal/cache"
	"github.com/daemonp/paradox2mqtt/internal/log"
	"github.com/daemonp/paradox2mqtt/internal/paradox"
	"github.com/daemonp/paradox2mqtt/internal/paradox/spectra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = ""

func init() {
	if Version != "" {
		return
	}
	Version = "dev"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}
}

var decodeAs string

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a captured frame and print it as JSON",
	Long: `Decode a 37 byte frame given as hex. Spaces and colons between octets are
ignored. Without --as the frame is classified from its leading bytes.`,
	Example: `  # Classify and decode a frame
  paradox2mqtt decode "e2 14 18 05 11 08 1e 01 03 ..."

  # Decode a panel announcement, which is never classified
  paradox2mqtt decode --as StartCommunicationResponse 00000000...`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		frame, err := parseHex(strings.Join(args, ""))
		if err != nil {
			return err
		}
		return decodeFrame(cmd.OutOrStdout(), frame, decodeAs)
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeAs, "as", "", "Decode as this message kind instead of classifying")
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "\n", "", "\t", "").Replace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	frame, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return frame, nil
}

func decodeFrame(w io.Writer, frame []byte, kind string) error {
	registry := spectra.NewRegistry()
	var (
		msg paradox.Message
		err error
	)
	if kind == "" {
		msg, err = spectra.NewCodec(registry, log.Nop(), nil).Decode(frame)
	} else {
		msg, err = registry.New(kind)
		if err == nil {
			err = msg.UnmarshalBinary(frame)
		}
	}
	if err != nil {
		return err
	}
	out := struct {
		Kind    string          `json:"kind"`
		Message paradox.Message `json:"message"`
	}{msg.Name(), msg}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var labelsClear bool

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Print the labels cached from the last run",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := cache.Dir()
		if err != nil {
			return err
		}
		if labelsClear {
			return cache.DeleteCache(dir)
		}
		data, err := cache.LoadCache(dir)
		if err != nil {
			return err
		}
		if data == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No cached labels.")
			return nil
		}
		printLabels(cmd.OutOrStdout(), data)
		return nil
	},
}

func init() {
	labelsCmd.Flags().BoolVar(&labelsClear, "clear", false, "Delete the cache instead of printing it")
}

func printLabels(w io.Writer, data *cache.Data) {
	fmt.Fprintf(w, "Panel %s, firmware %s, id %04x, updated %s\n",
		data.Panel.ProductID, data.Panel.Firmware, data.Panel.PanelID, data.LastUpdate.Format("2006-01-02 15:04:05"))
	for _, class := range paradox.Classes {
		records := data.Labels[class]
		if len(records) == 0 {
			continue
		}
		indices := make([]int, 0, len(records))
		for i := range records {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		fmt.Fprintf(w, "%s:\n", class)
		for _, i := range indices {
			fmt.Fprintf(w, "  %3d  %s\n", i, records[i].Label())
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "paradox2mqtt %s\n", Version)
	},
}
