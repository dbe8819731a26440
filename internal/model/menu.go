package model

// MenuItem documents live in the `menu` collection.  They are created by
// instructors and carry the owning instructor's email; name, price,
// category, seats and so on are opaque.
const FieldInstructorEmail = "instructorEmail"
