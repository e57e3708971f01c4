package sqlinline

// Remote job service credentials, keyed by provider ("video", "sandbox").

const QSelectIntegrationToken = `--sql 654fb984-2f69-4d00-ada9-59be207549c3
select token
from integration_tokens
where provider = $1::text
  and btrim(token) <> ''
limit 1;
`

const QUpsertIntegrationToken = `--sql 0977aaae-b32c-4496-af15-effcdcbf37a1
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
values (gen_random_uuid(), $1::text, $2::text, coalesce($3::jsonb, '{}'::jsonb), now(), now())
on conflict (provider) do update set
    token = excluded.token,
    properties = integration_tokens.properties || excluded.properties,
    updated_at = now();
`
