// SPDX-License-Identifier: EPL-2.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/soundpile/overdub"
	"github.com/soundpile/overdub/asset"
	"github.com/soundpile/overdub/group"
	"github.com/soundpile/overdub/render"
)

// sessionFile is the on-disk handle the UI layer hands over: the group
// plus the asset locations of its tracks in group order.
type sessionFile struct {
	Group     group.Group           `json:"group"`
	Locations render.GroupLocations `json:"locations"`
}

func main() {
	cfg := loadConfig()

	sessionPath := flag.String("session", "", "path to a session JSON file (group + track locations)")
	out := flag.String("out", "bounce.wav", "output WAV location, relative to the take directory")
	dir := flag.String("dir", cfg.TakeDir, "take directory")
	rate := flag.Int("rate", cfg.SampleRate, "output sample rate in Hz")
	depth := flag.Int("depth", cfg.BitDepth, "output bit depth (16 or 24)")
	flag.Parse()

	if *sessionPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*sessionPath)
	if err != nil {
		log.Fatalf("reading session: %v", err)
	}
	var sess sessionFile
	if err := json.Unmarshal(data, &sess); err != nil {
		log.Fatalf("parsing session: %v", err)
	}

	store := asset.NewDirStore(*dir)
	preset := asset.QualityPreset{SampleRate: *rate, BitDepth: *depth, Channels: 2}

	log.Printf("bouncing group %s (%d layers) -> %s", sess.Group.ID, len(sess.Group.Layers), *out)
	if err := overdub.Bounce(store, &sess.Group, sess.Locations, *out, preset); err != nil {
		log.Fatalf("bounce failed: %v", err)
	}
	fmt.Println(*out)
}
