// Package policy decides, before any persistence access, who may call an
// endpoint, which rows they see and which view shape the endpoint uses.
//
// Everything here is a pure function of the caller's identity, the resource
// and the action name. Request bodies never influence the outcome.
package policy

import (
	"gorm.io/gorm"

	apperrors "recipeshop/internal/errors"
)

// Resource names a collection exposed by the API.
type Resource string

const (
	// Account is the caller's own user record.
	Account     Resource = "account"
	Users       Resource = "users"
	Products    Resource = "products"
	Orders      Resource = "orders"
	Recipes     Resource = "recipes"
	Tags        Resource = "tags"
	Ingredients Resource = "ingredients"
)

// Action names an operation on a resource.
type Action string

const (
	ActionList          Action = "list"
	ActionRetrieve      Action = "retrieve"
	ActionCreate        Action = "create"
	ActionUpdate        Action = "update"
	ActionPartialUpdate Action = "partial_update"
	ActionDestroy       Action = "destroy"
	ActionInfo          Action = "info"
	ActionUploadImage   Action = "upload_image"
)

// Access is the minimum identity an endpoint requires.
type Access int

const (
	Public Access = iota
	Authenticated
	Staff
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	default:
		return "staff"
	}
}

// Shape selects the request/response representation of an endpoint.
type Shape string

const (
	ShapeAccount       Shape = "account"
	ShapeAdminUser     Shape = "admin_user"
	ShapeProduct       Shape = "product"
	ShapeProductInfo   Shape = "product_info"
	ShapeOrderRead     Shape = "order_read"
	ShapeOrderWrite    Shape = "order_write"
	ShapeRecipeSummary Shape = "recipe_summary"
	ShapeRecipeDetail  Shape = "recipe_detail"
	ShapeRecipeImage   Shape = "recipe_image"
	ShapeLabel         Shape = "label"
)

// Caller is the identity resolved from the access token. The zero value is an
// anonymous caller.
type Caller struct {
	UserID  uint
	IsStaff bool
}

// Authenticated reports whether the caller carries an identity.
func (c Caller) Authenticated() bool {
	return c.UserID != 0
}

// Rule is the outcome of selecting an endpoint's policy.
type Rule struct {
	Access Access
	Shape  Shape
}

// Check returns ErrUnauthenticated or ErrForbidden when the caller does not
// satisfy the rule.
func (r Rule) Check(c Caller) error {
	switch r.Access {
	case Public:
		return nil
	case Authenticated:
		if !c.Authenticated() {
			return apperrors.ErrUnauthenticated
		}
		return nil
	default:
		if !c.Authenticated() {
			return apperrors.ErrUnauthenticated
		}
		if !c.IsStaff {
			return apperrors.ErrForbidden
		}
		return nil
	}
}

func ownedCRUD(list, detail, write Shape) map[Action]Rule {
	return map[Action]Rule{
		ActionList:          {Authenticated, list},
		ActionRetrieve:      {Authenticated, detail},
		ActionCreate:        {Authenticated, write},
		ActionUpdate:        {Authenticated, write},
		ActionPartialUpdate: {Authenticated, write},
		ActionDestroy:       {Authenticated, detail},
	}
}

var rules = map[Resource]map[Action]Rule{
	Account: {
		ActionCreate:        {Public, ShapeAccount},
		ActionRetrieve:      {Authenticated, ShapeAccount},
		ActionUpdate:        {Authenticated, ShapeAccount},
		ActionPartialUpdate: {Authenticated, ShapeAccount},
	},
	Users: {
		ActionList:          {Staff, ShapeAdminUser},
		ActionRetrieve:      {Staff, ShapeAdminUser},
		ActionUpdate:        {Staff, ShapeAdminUser},
		ActionPartialUpdate: {Staff, ShapeAdminUser},
		ActionDestroy:       {Staff, ShapeAdminUser},
	},
	Products: {
		ActionList:          {Public, ShapeProduct},
		ActionInfo:          {Public, ShapeProductInfo},
		ActionRetrieve:      {Public, ShapeProduct},
		ActionCreate:        {Staff, ShapeProduct},
		ActionUpdate:        {Staff, ShapeProduct},
		ActionPartialUpdate: {Staff, ShapeProduct},
		ActionDestroy:       {Staff, ShapeProduct},
	},
	Orders:      ownedCRUD(ShapeOrderRead, ShapeOrderRead, ShapeOrderWrite),
	Recipes:     withAction(ownedCRUD(ShapeRecipeSummary, ShapeRecipeDetail, ShapeRecipeDetail), ActionUploadImage, Rule{Authenticated, ShapeRecipeImage}),
	Tags:        ownedCRUD(ShapeLabel, ShapeLabel, ShapeLabel),
	Ingredients: ownedCRUD(ShapeLabel, ShapeLabel, ShapeLabel),
}

func withAction(m map[Action]Rule, action Action, rule Rule) map[Action]Rule {
	m[action] = rule
	return m
}

// RuleFor returns the rule for an action on a resource. Unknown combinations
// report ok=false and a staff-only rule.
func RuleFor(res Resource, action Action) (rule Rule, ok bool) {
	rule, ok = rules[res][action]
	if !ok {
		return Rule{Access: Staff}, false
	}
	return rule, true
}

// Filter narrows a query to the rows a caller may see.
type Filter struct {
	OwnerID  uint
	Unscoped bool
}

// ResolveScope maps a caller and resource to a row filter. Staff callers see
// every order; recipes, tags and ingredients stay owner-only for everyone.
// Products and users are not owned.
func ResolveScope(c Caller, res Resource) Filter {
	switch res {
	case Products, Users:
		return Filter{Unscoped: true}
	case Orders:
		if c.IsStaff {
			return Filter{Unscoped: true}
		}
	}
	return Filter{OwnerID: c.UserID}
}

// Apply is a gorm scope adding the owner predicate.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	if f.Unscoped {
		return db
	}
	return db.Where("user_id = ?", f.OwnerID)
}

// Allows reports whether a row owned by ownerID passes the filter.
func (f Filter) Allows(ownerID uint) bool {
	return f.Unscoped || f.OwnerID == ownerID
}

// DefaultOrder is the ordering applied when a request does not ask for one.
func DefaultOrder(res Resource) string {
	switch res {
	case Recipes:
		return "id DESC"
	case Tags, Ingredients:
		return "name DESC"
	case Orders:
		return "created_at DESC"
	default:
		return "id ASC"
	}
}
