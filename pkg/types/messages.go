package types

// Client -> Server (JSON frames over /ws)
// join_room:
//   roomId: string (required; trimmed + uppercased server-side)
//   name: string (player display name; defaults to "Player")
//   role: "host" | "player" | anything else = spectator
//
// submit_meme:
//   roomId: string (required)
//   playerName: string (defaults to "Player")
//   url: string (required; normalize it first via POST /api/normalize-video-link)
//   caption: string (defaults to "")
//
// vote:
//   roomId: string (required)
//   memeId: string (required; one vote per socket per round)
//
// clear_memes:
//   roomId: string (required; starts a fresh round, players stay)

// Server -> Client
// room_state:
//   state:
//     roomId: string
//     memes: [{ id, playerName, url, caption, votes }] // submission order
//     players: [{ id, name }] // unordered
//
// There is no error frame. Malformed or out-of-order client frames are
// dropped server-side without a reply.
