package sqlinline

// Greedy-highest-balance selection. Spreads load away from near-exhausted
// keys; not a fairness guarantee.
const QSelectBestAPIKey = `--sql 21fec2ee-a53f-4b1f-83f2-1c2303d75c8d
select id, name, provider, api_key, credits, is_active, created_at, updated_at
from api_keys
where provider = $1
  and is_active
  and credits > $2
order by credits desc
limit 1;
`

// Conditional decrement so two concurrent jobs cannot both win the same key
// past its limit.
const QDebitAPIKey = `--sql 29fa7590-d353-4b7b-b1a2-523e9a81e88e
update api_keys
set credits = credits - $2, updated_at = now()
where id = $1
  and credits > $2;
`

const QSelectAPIKeySecret = `--sql 420100eb-4502-4044-88f7-1918273702f9
select api_key from api_keys where id = $1;
`

const QInsertAPIKey = `--sql 67f29fbb-c50c-4ca7-a5e9-d6a155a06852
insert into api_keys(name, provider, api_key, credits, is_active)
values ($1, $2, $3, $4, $5)
returning id;
`

const QUpdateAPIKey = `--sql e618e5fa-e2a0-4cbe-898a-1ef5a07b6692
update api_keys
set name = $2,
    credits = $3,
    is_active = $4,
    updated_at = now()
where id = $1;
`

const QDeleteAPIKey = `--sql 8915ce80-7737-4821-8feb-f7ff9cb3e149
delete from api_keys where id = $1;
`

const QListAPIKeys = `--sql 7d340a69-f721-4fb1-83ab-6022c7c60fad
select id, name, provider, api_key, credits, is_active, created_at, updated_at
from api_keys
order by provider, credits desc;
`
