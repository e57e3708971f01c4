package sqlinline

const QSelectUserPreferences = `--sql 388dcda7-8d3c-4649-852c-0f292e6407de
select user_id, theme, language, notifications_enabled, updated_at
from user_preferences
where user_id = $1::uuid;
`

const QUpsertUserPreferences = `--sql 1806cb32-927f-4224-aa2f-09a568c0606d
insert into user_preferences (user_id, theme, language, notifications_enabled, updated_at)
values ($1::uuid, $2::text, $3::text, $4::boolean, now())
on conflict (user_id) do update set
    theme = excluded.theme,
    language = excluded.language,
    notifications_enabled = excluded.notifications_enabled,
    updated_at = now()
returning updated_at;
`
