package sqlinline

const QUpdateChatMessageVideo = `--sql 32c3f167-7b99-4310-9c62-f545142338ae
update chat_messages
set video_status = coalesce($2::text, video_status),
    video_url = case when $3::text is null then video_url else nullif($3::text, '') end,
    video_error = case when $4::text is null then video_error else nullif($4::text, '') end,
    updated_at = now()
where id = $1::uuid;
`
