// Package timeouts defines shared time budgets used across the onboarding service.
package timeouts

import "time"

// Shutdown limits how long servers and telemetry wait while stopping.
const Shutdown = 5 * time.Second

// Generation caps one message-generation call to the language model.
const Generation = 20 * time.Second

// Dispatch caps one outbound follow-up message hand-off.
const Dispatch = 10 * time.Second

// Publish caps one notification mirror write to the broker.
const Publish = 5 * time.Second
