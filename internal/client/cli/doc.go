// Package cli implements the interactive SealTalk client: a small REPL that
// signs a user in with an identity token, provisions their E2EE keys and lets
// them exchange end-to-end encrypted private messages.
//
// Commands
//
//	login                 sign in with an identity token
//	chat <user>           open a private conversation
//	send <text>           send a message in the open conversation
//	attach <path> [text]  send a file (encrypted) with an optional caption
//	history               show the conversation history
//	save <n> <dir>        download the attachments of message n into dir
//	close                 close the open conversation
//	check                 verify the published key matches this device
//	whoami                show the signed-in user and mode
//	logout                close all conversations and sign out
//	forget                remove this device's keys and sign out
//	forget all            wipe the keys of every user on this device
//	exit | quit           leave the program
package cli
