// Package platform defines the narrow boundary between guildstats and the
// chat-platform gateway.
//
// The gateway (connection handling, sharding, rate limits) lives outside
// this repository. It delivers inbound events as the structs defined here
// and accepts outbound actions through the Session interface. Everything in
// pkg/bot is written against these types, so any gateway library can be
// adapted with a thin shim.
package platform
