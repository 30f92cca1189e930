// Package console implements `mcphub console`, an interactive shell that
// speaks JSON-RPC to the hub over its WebSocket channel.
//
// Commands:
//
//	help [command]        show available commands
//	init                  send initialize and print the server info
//	tools                 list aggregated tools
//	resources             list per-backend resources
//	call <tool> [json]    call a tool, e.g. call alpha_search {"query": "foo"}
//	read <uri>            read a resource, e.g. read repo://alpha/README.md
//	raw <json>            send a hand-written envelope and print the reply
//	exit, quit            leave the console
//
// History is kept in the temp directory across sessions. Tool names and
// resource URIs complete with TAB after the first listing.
package console
