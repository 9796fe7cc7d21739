package database

// Catalog queries. Numeric columns come back as text and are parsed into
// decimals by the callers.
const (
	GetCategoriesSQL = `
		SELECT id, name, position
		FROM categories
		ORDER BY position ASC`

	GetMenuItemsSQL = `
		SELECT id, category_id, name, COALESCE(description, ''), price::text,
			   COALESCE(options, '{}'), visible
		FROM menu_items
		ORDER BY name ASC`
)

// Coupon redemption queries. All of these run inside one serializable
// transaction; see coupon.PostgresStore.
const (
	GetCouponSQL = `
		SELECT code, active, min_purchase::text, usage_limit, uses_so_far, discount_fraction::text
		FROM coupons
		WHERE code = $1`

	GetUserCouponsSQL = `
		SELECT COALESCE(redeemed_coupons, '{}'::jsonb)
		FROM users
		WHERE uid = $1`

	IncrementCouponUsesSQL = `
		UPDATE coupons SET uses_so_far = uses_so_far + 1
		WHERE code = $1`

	MarkCouponUsedSQL = `
		INSERT INTO users (uid, redeemed_coupons)
		VALUES ($1, jsonb_build_object($2::text, true))
		ON CONFLICT (uid) DO UPDATE SET
			redeemed_coupons = COALESCE(users.redeemed_coupons, '{}'::jsonb)
				|| jsonb_build_object($2::text, true)`
)

// Identity queries
const (
	GetUserProfileSQL = `
		SELECT uid, COALESCE(email, ''), COALESCE(saved_address, ''),
			   COALESCE(redeemed_coupons, '{}'::jsonb)
		FROM users
		WHERE uid = $1`
)

// Sale queries
const (
	InsertSaleSQL = `
		INSERT INTO sales (id, total, user_id)
		VALUES ($1, $2::numeric, $3)
		RETURNING created_at`

	InsertSaleItemSQL = `
		INSERT INTO sale_items (sale_id, name, qty, price, options, comment)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)`
)
