package sqlinline

const QSelectBalance = `--sql 52e6483d-9aab-406f-ac8d-cd976bb06406
select balance from user_credits where user_id = $1;
`

const QEnsureUserCredits = `--sql e8d5e2b0-ae57-4933-8994-2e72850013b4
insert into user_credits(user_id, balance)
values ($1, 0)
on conflict (user_id) do nothing;
`

// Conditional debit. Matches zero rows when the balance no longer covers the
// amount, which the caller treats as a reconciliation conflict.
const QDebitUserBalance = `--sql 97c7f3a7-6349-423e-9a4e-f6047ba4c5f9
update user_credits
set balance = balance - $2, updated_at = now()
where user_id = $1
  and balance >= $2;
`

const QCreditUserBalance = `--sql 76fd4535-e488-4a1c-a8af-db09aab51792
insert into user_credits(user_id, balance)
values ($1, $2)
on conflict (user_id) do update
set balance = user_credits.balance + excluded.balance,
    updated_at = now();
`

const QInsertTransaction = `--sql ea97d179-dab2-43e8-a093-b9cc856c2dfa
insert into credit_transactions(user_id, api_key_id, amount, transaction_type, description)
values ($1, nullif($2, '')::uuid, $3, $4, $5)
returning id;
`
