package errors

// Error code constants.
// Format: CATEGORY_SPECIFIC_DETAIL
// The storefront maps these codes to user-facing copy.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized = "AUTH_UNAUTHORIZED" // login required
	AuthTokenExpired = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid = "AUTH_TOKEN_INVALID"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden = "AUTHZ_FORBIDDEN"
	AuthzAdminOnly = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (PRODUCT_, COURSE_) ====================
	ProductNotFound       = "PRODUCT_NOT_FOUND"
	ProductUnavailable    = "PRODUCT_UNAVAILABLE"
	ProductInvalidVariant = "PRODUCT_INVALID_VARIANT"
	ProductOutOfStock     = "PRODUCT_OUT_OF_STOCK"
	CourseNotFound        = "COURSE_NOT_FOUND"
	CourseInvalidPackage  = "COURSE_INVALID_PACKAGE"
	CourseInvalidDate     = "COURSE_INVALID_DATE"

	// ==================== Cart (CART_) ====================
	CartEmpty           = "CART_EMPTY"
	CartInvalidQuantity = "CART_INVALID_QUANTITY"
	CartUnavailable     = "CART_UNAVAILABLE"

	// ==================== Checkout (CHECKOUT_) ====================
	CheckoutInvalidShipping = "CHECKOUT_INVALID_SHIPPING"
	CheckoutLockerRequired  = "CHECKOUT_LOCKER_REQUIRED"
	CheckoutAddressRequired = "CHECKOUT_ADDRESS_REQUIRED"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound         = "ORDER_NOT_FOUND"
	OrderInvalidStatus    = "ORDER_INVALID_STATUS"
	OrderStatusTransition = "ORDER_STATUS_TRANSITION"
	BookingNotFound       = "BOOKING_NOT_FOUND"

	// ==================== Payment (PAYMENT_) ====================
	PaymentFailed      = "PAYMENT_FAILED"
	PaymentNotComplete = "PAYMENT_NOT_COMPLETE"
	PaymentNotPaid     = "PAYMENT_NOT_PAID"
	PaymentRefunded    = "PAYMENT_ALREADY_REFUNDED"

	// ==================== Server (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR"
	InternalDatabase    = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI = "INTERNAL_EXTERNAL_API_ERROR"
)
