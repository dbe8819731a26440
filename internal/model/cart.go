package model

// CartItem documents live in the `cart` collection.  The "email" field
// names the owning identity and "menuItemId" references the selected
// MenuItem.  Other fields (name, price, image) are copied from the menu
// item by the client and are opaque here.
const FieldMenuItemID = "menuItemId"
