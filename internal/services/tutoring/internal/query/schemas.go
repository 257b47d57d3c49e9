package query

// Collections are queried with the alias "t".

var Users = Schema{
	Fields: []Field{
		{Param: "email", Column: "t.email", Match: Exact},
		{Param: "email__icontains", Column: "t.email", Match: IContains},
		{Param: "first_name__icontains", Column: "t.first_name", Match: IContains},
		{Param: "last_name__icontains", Column: "t.last_name", Match: IContains},
		{Param: "is_tutor", Column: "t.is_tutor", Match: Bool},
		{Param: "is_superuser", Column: "t.is_superuser", Match: Bool},
		{Param: "categories", Column: "t.id", Match: Member, Join: Join{
			Table:       "user_categories",
			OwnerColumn: "user_id",
			ValueColumn: "category_id",
		}},
	},
	Sort: map[string]string{
		"id":         "t.id",
		"email":      "t.email",
		"first_name": "t.first_name",
		"last_name":  "t.last_name",
		"is_tutor":   "t.is_tutor",
		"created_at": "t.created_at",
		"updated_at": "t.updated_at",
	},
}

var Categories = Schema{
	Fields: []Field{
		{Param: "name", Column: "t.name", Match: Exact},
		{Param: "name__icontains", Column: "t.name", Match: IContains},
		{Param: "locked", Column: "t.locked", Match: Bool},
	},
	Sort: map[string]string{
		"id":         "t.id",
		"name":       "t.name",
		"locked":     "t.locked",
		"created_at": "t.created_at",
	},
}

var Reviews = Schema{
	Fields: []Field{
		{Param: "reviewer_id", Column: "t.reviewer_id", Match: Int},
		{Param: "reviewee_id", Column: "t.reviewee_id", Match: Int},
		{Param: "rating", Column: "t.rating", Match: Int},
	},
	Sort: map[string]string{
		"id":         "t.id",
		"rating":     "t.rating",
		"created_at": "t.created_at",
	},
}

var Reports = Schema{
	Fields: []Field{
		{Param: "type", Column: "t.type", Match: Exact},
		{Param: "reference_id", Column: "t.reference_id", Match: Int},
		{Param: "user_id", Column: "t.user_id", Match: Int},
	},
	Sort: map[string]string{
		"id":         "t.id",
		"type":       "t.type",
		"created_at": "t.created_at",
	},
}

var Sessions = Schema{
	Fields: []Field{
		{Param: "tutor_id", Column: "t.tutor_id", Match: Int},
		{Param: "event_id", Column: "t.event_id", Match: Exact},
		{Param: "student_id", Column: "t.id", Match: Member, Join: Join{
			Table:       "student_sessions",
			OwnerColumn: "session_id",
			ValueColumn: "user_id",
		}},
		{Param: "category_id", Column: "t.id", Match: Member, Join: Join{
			Table:       "student_sessions",
			OwnerColumn: "session_id",
			ValueColumn: "category_id",
		}},
	},
	Sort: map[string]string{
		"id":         "t.id",
		"tutor_id":   "t.tutor_id",
		"start_time": "t.start_time",
		"created_at": "t.created_at",
	},
}
