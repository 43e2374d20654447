package sqlinline

// Single-statement redemption: the status guard makes a voucher single-use
// even under concurrent redeem attempts.
const QRedeemVoucher = `--sql a99f6210-698c-44e7-955b-b435f320020d
update vouchers
set status = 'redeemed',
    redeemed_by = $2,
    redeemed_at = now()
where code = $1
  and status = 'active'
returning id, credits;
`

const QInsertVoucher = `--sql 548a97a0-64d9-4f2e-be78-e4d1270da248
insert into vouchers(code, credits, created_by)
values ($1, $2, nullif($3, '')::uuid)
returning id;
`
