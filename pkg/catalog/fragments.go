package catalog

// Literal fragments of catalog.html. Indentation and line breaks are
// significant: every before-block and anchor must match the page byte for byte.

const productImageBefore = `        .product-image {
            background: var(--bg-light);
            padding: 20px;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 220px;
        }`

const productImageAfter = `        .product-image {
            background: var(--bg-light);
            padding: 20px;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 220px;
            position: relative;
            overflow: hidden;
        }`

const productImageImgBefore = `        .product-image img {
            max-width: 100%;
            max-height: 100%;
            object-fit: contain;
        }`

const productImageImgAfter = `        .product-image img {
            max-width: 100%;
            max-height: 100%;
            object-fit: contain;
            transition: opacity 0.3s ease;
        }`

const carouselCSS = `
        .product-image.carousel .carousel-nav {
            position: absolute;
            top: 50%;
            transform: translateY(-50%);
            background: rgba(35, 31, 32, 0.65);
            color: var(--white);
            border: none;
            width: 32px;
            height: 32px;
            border-radius: 50%;
            display: flex;
            align-items: center;
            justify-content: center;
            cursor: pointer;
            opacity: 0;
            transition: opacity 0.2s ease;
        }

        .product-image.carousel:hover .carousel-nav {
            opacity: 1;
        }

        .product-image.carousel .carousel-nav.prev {
            left: 12px;
        }

        .product-image.carousel .carousel-nav.next {
            right: 12px;
        }

        .product-image.carousel .carousel-indicators {
            position: absolute;
            bottom: 12px;
            left: 50%;
            transform: translateX(-50%);
            display: flex;
            gap: 6px;
        }

        .product-image.carousel .carousel-indicators span {
            width: 8px;
            height: 8px;
            border-radius: 50%;
            background: rgba(255, 255, 255, 0.35);
            transition: background 0.2s ease;
        }

        .product-image.carousel .carousel-indicators span.active {
            background: var(--psi-red);
        }

        @media (hover: none) {
            .product-image.carousel .carousel-nav {
                opacity: 1;
            }
        }
`

const filterElementsAnchor = `        const filterElements = {
            publisher: null,
            category: null,
            priceBand: null,
            sort: null,
            clear: null,
            count: null
        };

        let filtersBound = false;
`

const carouselTimersJS = `
        const carouselTimers = new Map();

`

const cacheFilterElementsAnchor = `        function cacheFilterElements() {
            if (filterElements.publisher) return;
            filterElements.publisher = document.getElementById('filterPublisher');
            filterElements.category = document.getElementById('filterCategory');
            filterElements.priceBand = document.getElementById('filterPriceBand');
            filterElements.sort = document.getElementById('sortProducts');
            filterElements.clear = document.getElementById('clearFiltersButton');
            filterElements.count = document.getElementById('productsCount');
        }

`

const clearCarouselTimersJS = `        function clearCarouselTimers() {
            carouselTimers.forEach(id => clearInterval(id));
            carouselTimers.clear();
        }

`

const productPrimaryImageAnchor = `        function productPrimaryImage(product) {
            if (product.primaryImage) return product.primaryImage;
            if (product.images && product.images.main) return product.images.main;
            if (product.images && product.images.front) return product.images.front;
            return 'psi.svg';
        }

`

const getProductImagesJS = `        function getProductImages(product) {
            const sources = [
                product.primaryImage,
                product.images && product.images.main,
                product.images && product.images.front,
                product.images && product.images.angle,
                product.images && product.images.pack
            ];
            const unique = [];
            const seen = new Set();
            sources.forEach(source => {
                const sanitized = sanitizeImageUrl(source);
                if (sanitized && !seen.has(sanitized)) {
                    seen.add(sanitized);
                    unique.push(sanitized);
                }
            });
            if (!unique.length) {
                unique.push(productPrimaryImage(product));
            }
            return unique;
        }

`
