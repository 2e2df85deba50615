package types

// room_state snapshot:
//   roomId: string // normalized room code
//   memes: [{ id, playerName, url, caption, votes }]
//   players: [{ id, name }]
//
// Deliberately absent: the host's socket id and the per-socket vote map.
// Vote tallies are only visible as each meme's votes counter, so no
// client can learn who voted for what.
