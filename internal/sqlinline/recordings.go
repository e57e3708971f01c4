package sqlinline

const QInsertScreenRecording = `--sql dc9252dc-728f-4980-b0fe-03bc747c9bc9
insert into screen_recordings (id, user_id, title, storage_key, mime, bytes, duration_seconds, created_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::bigint, $7::int, now())
returning created_at;
`

const QListScreenRecordings = `--sql ae0954c3-d3ba-4c5f-ab7e-d622f79247ea
select id, user_id, title, storage_key, mime, bytes, duration_seconds, created_at
from screen_recordings
where user_id = $1::uuid
order by created_at desc
limit $2;
`
