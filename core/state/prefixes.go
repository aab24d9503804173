package state

var (
	marketplaceRecordPrefix = []byte("marketplace/record/")
	marketplaceIndexPrefix  = []byte("marketplace/listings/")
	creditRecordPrefix      = []byte("marketplace/credit/")
	listingRecordPrefix     = []byte("marketplace/listing/")
	bidRecordPrefix         = []byte("marketplace/bid/")
	noncePrefix             = []byte("marketplace/nonce/")
	accountBalancePrefix    = []byte("account/balance/")
)
