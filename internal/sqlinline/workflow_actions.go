package sqlinline

const QInsertWorkflowAction = `--sql ef2ce57f-70ce-4b3b-a692-6899737e227a
insert into workflow_actions (id, user_id, name, language, code, status, created_at, updated_at)
values ($1::uuid, $2::uuid, $3::text, $4::text, $5::text, $6::text, now(), now())
returning created_at, updated_at;
`

const QSelectWorkflowAction = `--sql bcc93454-93ea-412c-a8cb-a6362e04bd3e
select id, user_id, name, language, code, status,
       coalesce(output_url, ''), coalesce(last_error, ''), created_at, updated_at
from workflow_actions
where id = $1::uuid;
`

const QListWorkflowActions = `--sql abef252f-bc5c-4355-8085-09d84a69103f
select id, user_id, name, language, code, status,
       coalesce(output_url, ''), coalesce(last_error, ''), created_at, updated_at
from workflow_actions
where user_id = $1::uuid
order by created_at desc
limit $2;
`

const QUpdateWorkflowActionResult = `--sql 25bbbd02-e418-479a-b8a2-b4a4191f4f27
update workflow_actions
set status = coalesce($2::text, status),
    output_url = case when $3::text is null then output_url else nullif($3::text, '') end,
    last_error = case when $4::text is null then last_error else nullif($4::text, '') end,
    updated_at = now()
where id = $1::uuid;
`
