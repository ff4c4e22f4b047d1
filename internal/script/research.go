package script

import (
	"context"
	"log"
)

// Research performs the global research call for a run. The result is
// the raw material every later phase draws from.
func Research(ctx context.Context, client Generator, req Request) (string, error) {
	log.Printf("Researching %q for a ~%d minute script", req.Topic, req.TargetMinutes)
	return client.Research(ctx, researchPrompt(req))
}
