package records

// Entity type tags stored in the entityType attribute.
const (
	EntityUser        = "USER"
	EntityMarketplace = "MARKETPLACE"
	EntityMembership  = "MEMBERSHIP"
	EntityListing     = "LISTING"
	EntityAuction     = "AUCTION"
	EntityBid         = "BID"
	EntityCard        = "CARD"
	EntityMessage     = "MESSAGE"
)

// Key prefixes. The part following a prefix is always ciphertext except for
// the LISTING# sort key on GSI1, which carries the plaintext creation time.
const (
	PrefixUser        = "USER#"
	PrefixUserID      = "USERID#"
	PrefixMarketplace = "MARKETPLACE#"
	PrefixMember      = "MEMBER#"
	PrefixListing     = "LISTING#"
	PrefixAuction     = "AUCTION#"
	PrefixBid         = "BID#"
	PrefixCard        = "CARD#"
	PrefixMessage     = "MESSAGE#"
)

// Fixed sort key labels. They are encrypted before use like any other key
// component.
const (
	LabelMetadata = "METADATA"
	LabelProfile  = "PROFILE"
)

func UserKey(encEmail, encProfile string) KeyPair {
	return KeyPair{PartitionKey: PrefixUser + encEmail, SortKey: encProfile}
}

func UserIDKey(encUserID, encProfile string) KeyPair {
	return KeyPair{PartitionKey: PrefixUserID + encUserID, SortKey: encProfile}
}

func MarketplaceKey(encID, encMetadata string) KeyPair {
	return KeyPair{PartitionKey: PrefixMarketplace + encID, SortKey: encMetadata}
}

func MembershipKey(encMarketplaceID, encUserID string) KeyPair {
	return KeyPair{PartitionKey: PrefixMarketplace + encMarketplaceID, SortKey: PrefixMember + encUserID}
}

func ListingKey(encID, encMetadata string) KeyPair {
	return KeyPair{PartitionKey: PrefixListing + encID, SortKey: encMetadata}
}

// ListingByMarketplaceKey is the GSI1 entry grouping listings under their
// marketplace in creation order.
func ListingByMarketplaceKey(encMarketplaceID, createdAt string) KeyPair {
	return KeyPair{PartitionKey: PrefixMarketplace + encMarketplaceID, SortKey: PrefixListing + createdAt}
}

func AuctionKey(encID, encMetadata string) KeyPair {
	return KeyPair{PartitionKey: PrefixAuction + encID, SortKey: encMetadata}
}

func BidKey(encAuctionID, encBidID string) KeyPair {
	return KeyPair{PartitionKey: PrefixAuction + encAuctionID, SortKey: PrefixBid + encBidID}
}

func CardKey(encID, encMetadata string) KeyPair {
	return KeyPair{PartitionKey: PrefixCard + encID, SortKey: encMetadata}
}

func MessageKey(encID, encMetadata string) KeyPair {
	return KeyPair{PartitionKey: PrefixMessage + encID, SortKey: encMetadata}
}
