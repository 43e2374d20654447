package sqlinline

const QInsertImageGeneration = `--sql 789660c4-c92d-468a-a8fe-a87fcb6f3623
insert into image_generations(
  user_id,
  prompt,
  aspect_ratio,
  resolution,
  output_format,
  model_id,
  model_name,
  server,
  status,
  credits_used
)
values ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
returning id;
`

const QAttachImageAPIKey = `--sql 09edbed9-743e-45a4-85ca-88458bf4c040
update image_generations
set api_key_id = $2, updated_at = now()
where id = $1;
`

const QResolveImageGeneration = `--sql 8f0b3e4a-24d9-4fd4-9d76-f0001a400168
update image_generations
set status = $2,
    output_url = $3,
    error_message = $4,
    updated_at = now()
where id = $1
  and status = 'pending';
`

const QSelectImageGeneration = `--sql 51798224-1d6e-41e7-943c-943a32ca375e
select id, user_id, coalesce(api_key_id::text, ''), prompt, aspect_ratio, resolution,
       output_format, model_id, model_name, server, status, output_url,
       error_message, credits_used, created_at, updated_at
from image_generations
where id = $1 and user_id = $2;
`

const QInsertVideoGeneration = `--sql e7a67ad0-6b6b-4314-b062-c1818583e0ba
insert into video_generations(
  user_id,
  prompt,
  negative_prompt,
  aspect_ratio,
  resolution,
  duration_seconds,
  audio_enabled,
  reference_image_count,
  model_id,
  model_name,
  server,
  status,
  credits_used
)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'pending', $12)
returning id;
`

const QAttachVideoAPIKey = `--sql 7fe35438-b7d5-4db3-9194-74ac0ac52949
update video_generations
set api_key_id = $2, updated_at = now()
where id = $1;
`

const QMarkVideoSubmitted = `--sql 25f1c3e1-d606-41da-8355-8b8487b0f502
update video_generations
set provider_request_id = $2, updated_at = now()
where id = $1
  and status = 'pending';
`

const QResolveVideoGeneration = `--sql f4bc654f-8176-450f-b3d9-18456156b6f1
update video_generations
set status = $2,
    output_url = $3,
    error_message = $4,
    updated_at = now()
where id = $1
  and status = 'pending';
`

const QSelectVideoGeneration = `--sql da322a59-6286-4e7b-8c79-f508bd809533
select id, user_id, coalesce(api_key_id::text, ''), prompt, negative_prompt, aspect_ratio,
       resolution, duration_seconds, audio_enabled, reference_image_count,
       model_id, model_name, server, status, provider_request_id, output_url,
       error_message, credits_used, created_at, updated_at
from video_generations
where id = $1 and user_id = $2;
`

// The heartbeat guard keeps two workers from re-claiming the same job inside
// one poll window.
const QClaimVideoJob = `--sql 4f36fc2a-be18-4f5b-b721-04ea85a93615
update video_generations v
set updated_at = now()
where v.id = (
  select id from video_generations
  where status = 'pending'
    and provider_request_id <> ''
    and updated_at < now() - interval '30 seconds'
  order by created_at
  limit 1
  for update skip locked
)
returning v.id, v.user_id, coalesce(v.api_key_id::text, ''), v.prompt, v.model_id,
          v.model_name, v.server, v.provider_request_id, v.reference_image_count,
          v.credits_used;
`

const QSweepStaleVideoJobs = `--sql 4dfca9c4-956e-42fd-87a6-52c43a7b0b55
update video_generations
set status = 'failed',
    error_message = 'Generation timed out',
    updated_at = now()
where status = 'pending'
  and created_at < now() - $1::interval;
`
