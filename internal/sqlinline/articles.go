package sqlinline

const QInsertArticle = `--sql 7182c17a-18a7-49a5-ba09-0b5dd890682c
insert into articles (id, user_id, status, task_id, input_json, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::json, $6::timestamptz, $7::timestamptz);
`

const QSelectArticleByID = `--sql 3fb88639-ebd4-4778-81d9-b7aebc3eb1aa
select id::text, user_id, status, task_id, title, body_markdown, cover_image_url,
       error_message, input_json, created_at, updated_at
from articles
where id = $1::uuid;
`

// QUpdateArticle moves an article forward and fills empty outputs. Error rows
// are never touched, the status never moves back, and populated title, body,
// cover or error message columns are never overwritten. It selects whether
// the row exists.
const QUpdateArticle = `--sql 3fb3ae69-32cf-42f2-a69b-f4deb95d88f2
with existing as (
    select id, status
    from articles
    where id = $1::uuid
    for update
),
target as (
    select
        id,
        case
            when $2::text is null then status
            when status = 'queued' and $2::text in ('generating', 'completed', 'error') then $2::text
            when status = 'generating' and $2::text in ('completed', 'error') then $2::text
            else status
        end as next_status
    from existing
    where status <> 'error'
),
updated as (
    update articles a
    set status = t.next_status,
        title = case
            when t.next_status = 'completed' and coalesce(btrim(a.title), '') = '' and coalesce(btrim($3::text), '') <> ''
            then $3::text else a.title end,
        body_markdown = case
            when t.next_status = 'completed' and coalesce(btrim(a.body_markdown), '') = '' and coalesce(btrim($4::text), '') <> ''
            then $4::text else a.body_markdown end,
        cover_image_url = case
            when t.next_status = 'completed' and coalesce(btrim(a.cover_image_url), '') = '' and coalesce(btrim($5::text), '') <> ''
            then $5::text else a.cover_image_url end,
        error_message = case
            when t.next_status = 'error' and coalesce(btrim(a.error_message), '') = '' and coalesce(btrim($6::text), '') <> ''
            then $6::text else a.error_message end,
        updated_at = now()
    from target t
    where a.id = t.id
    returning a.id
)
select exists(select 1 from existing) as found;
`

const QListRecentArticlesByUser = `--sql 472c993b-5da8-4888-a285-7b30d7d9021b
select id::text, user_id, status, task_id, title, body_markdown, cover_image_url,
       error_message, input_json, created_at, updated_at
from articles
where user_id = $1::text
  and created_at >= $2::timestamptz
order by created_at desc;
`

const QListArticlesByUser = `--sql 35d9b04a-683b-4f38-9389-d0fce65d073e
select id::text, user_id, status, task_id, title, body_markdown, cover_image_url,
       error_message, input_json, created_at, updated_at
from articles
where user_id = $1::text
order by created_at desc
limit $2::int;
`

const QListInFlightArticles = `--sql 957bd7fb-bc00-43cb-8e46-ffcdad6e9b9e
select id::text, user_id, status, task_id, title, body_markdown, cover_image_url,
       error_message, input_json, created_at, updated_at
from articles
where status in ('queued', 'generating')
order by created_at asc
limit $1::int;
`
