package constant

import (
	"fmt"
	"strings"
)

const (
	TickQueueNameCache = "tick_queue_cache"
	TickQueueGroup     = "tick_group"

	TickStreamName       = "tick"
	TickStreamSubjectAll = "tick.>"
)

// GetTickStreamSubject builds tick.<gateway>.<symbol>_<exchange>, dots are subject separators in NATS.
func GetTickStreamSubject(gateway, vtSymbol string) string {
	return fmt.Sprintf("%s.%s.%s", TickStreamName, strings.ToLower(gateway), strings.ReplaceAll(vtSymbol, ".", "_"))
}

func GetTickGatewayStreamSubject(gateway string) string {
	return fmt.Sprintf("%s.%s.*", TickStreamName, strings.ToLower(gateway))
}

func GetTickCacheQueueGroup(gateway string) string {
	return fmt.Sprintf("%s_%s_%s", TickQueueGroup, TickQueueNameCache, strings.ToLower(gateway))
}

func GetLatestTickCacheKey(vtSymbol string) string {
	return fmt.Sprintf("tick:latest:%s", vtSymbol)
}
