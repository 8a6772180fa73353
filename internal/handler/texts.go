package handler

const startText = `👋 Hi! I turn photos, GIFs and videos into Telegram stickers.

Send me some media, then pick a command:
/stickerify — photo → static sticker
/addtext <caption> — photo with a caption
/meme — build a top/bottom text meme
/gif2sticker — GIF or video → video sticker
/quote2sticker — reply to a message to frame it
/kang — copy a sticker into your own pack
/createstickerpack <name> — start a new pack
/addsticker — add media to one of your packs
/mypacks — list your packs

/help shows the details.`

const helpText = `*How it works*

I remember the last photo, GIF, video or sticker you sent for an hour.
Commands use, in order of preference:
1. media attached to the command itself,
2. the message you replied to,
3. that remembered media.

*Conversions*
/stickerify — shrinks a photo to 512px and converts it to webp.
/addtext <caption> — same, with a caption drawn on it.
/gif2sticker — converts a GIF or short video to a webm video sticker (first 3 seconds, no sound).
/quote2sticker — reply to any text message to render it as a quote card.
/meme — a short conversation: photo, then top text, then bottom text. /cancel stops it.

*Packs*
/kang — reply to (or forward) a sticker to copy it into your personal pack. The pack is created the first time.
/createstickerpack <name> — creates a pack seeded with the resolved media.
/addsticker — shows your packs as buttons; pick one to add the resolved media.
/mypacks — lists every pack created here.

Files over 50MB are rejected.`
