package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sash-ai/avatarlink/internal/heygen"
)

// avatarprobe lists the account's avatar inventory and can validate an
// avatar/voice pairing by creating and immediately stopping a throwaway
// session. Useful when a session create fails with "avatar not found" and
// the exact inventory id is unclear.
func main() {
	var (
		apiKey   = flag.String("key", os.Getenv("HEYGEN_API_KEY"), "provider API key (defaults to HEYGEN_API_KEY)")
		baseURL  = flag.String("base", os.Getenv("HEYGEN_BASE_URL"), "provider base URL (defaults to HEYGEN_BASE_URL)")
		avatarID = flag.String("avatar", "", "avatar id to validate with a throwaway session")
		voiceID  = flag.String("voice", "", "voice id used for validation")
		timeout  = flag.Duration("timeout", 30*time.Second, "per-call timeout")
	)
	flag.Parse()

	if *apiKey == "" {
		log.Fatalf("an API key is required (flag -key or HEYGEN_API_KEY)")
	}

	client := heygen.NewClient(heygen.Config{
		BaseURL: *baseURL,
		APIKey:  *apiKey,
		Timeout: *timeout,
	})
	ctx := context.Background()

	avatars, err := client.ListAvatars(ctx)
	if err != nil {
		log.Fatalf("list avatars: %v", err)
	}

	fmt.Printf("%-40s %-30s %-8s %s\n", "ID", "NAME", "GENDER", "PREMIUM")
	for _, a := range avatars {
		fmt.Printf("%-40s %-30s %-8s %v\n", a.AvatarID, a.AvatarName, a.Gender, a.Premium)
	}
	fmt.Printf("%d avatars\n", len(avatars))

	if *avatarID == "" {
		return
	}
	if *voiceID == "" {
		log.Fatalf("-voice is required when validating an avatar")
	}

	fmt.Printf("validating %s / %s ...\n", *avatarID, *voiceID)
	info, err := client.NewSession(ctx, heygen.NewSessionRequest{
		AvatarName: *avatarID,
		VoiceID:    *voiceID,
	})
	if err != nil {
		log.Fatalf("validation failed: %v", err)
	}
	if err := client.StopSession(ctx, info.SessionID); err != nil {
		log.Printf("warning: throwaway session %s not stopped: %v", info.SessionID, err)
	}
	fmt.Printf("ok: session %s created and stopped\n", info.SessionID)
}
