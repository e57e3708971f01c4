package sqlinline

const QInsertExecutionLog = `--sql 3c43806b-5828-4f13-b524-cef53fbbb9b1
insert into execution_logs (id, workflow_action_id, user_id, job_id, status, output_url, error_message, created_at)
values ($1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, nullif($6::text, ''), nullif($7::text, ''), now())
returning created_at;
`

const QListExecutionLogs = `--sql 442ef6ee-37cc-40fe-a923-e1a2b38f7a93
select id, workflow_action_id, user_id, job_id, status,
       coalesce(output_url, ''), coalesce(error_message, ''), created_at
from execution_logs
where workflow_action_id = $1::uuid
order by created_at desc
limit $2;
`

const QExecutionDailyCounts = `--sql a813293e-199f-4638-83b4-f2790f2eba89
select date_trunc('day', created_at at time zone 'utc') as day,
       count(*) as total,
       count(*) filter (where status = 'completed') as succeeded,
       count(*) filter (where status = 'failed') as failed
from execution_logs
where user_id = $1::uuid
  and created_at >= $2::timestamptz
group by 1
order by 1;
`
